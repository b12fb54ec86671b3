package container

import (
	"archive/tar"
	"archive/zip"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Export packaging. Archive member names are always relative to the common
// parent directory of the inputs, recomputed per invocation. Members are
// written in sorted order with fixed compression parameters so that two
// exports of the same inputs produce byte-identical containers.

type member struct {
	abs string
	rel string // forward-slash relative path inside the archive
}

// CopyFile copies src verbatim into targetDir under its original basename and
// returns the absolute destination path.
func CopyFile(targetDir, src string) (string, error) {
	dest := filepath.Join(targetDir, filepath.Base(src))

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copying to %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return filepath.Abs(dest)
}

// BuildZip combines paths into targetDir/name as a zip container using a
// fixed low compression level, and returns the absolute container path.
func BuildZip(targetDir, name string, paths []string) (string, error) {
	members, err := collectMembers(paths)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(targetDir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	for _, m := range members {
		if err := writeZipMember(zw, m); err != nil {
			zw.Close()
			f.Close()
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return filepath.Abs(dest)
}

func writeZipMember(zw *zip.Writer, m member) error {
	fi, err := os.Stat(m.abs)
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(fi)
	if err != nil {
		return err
	}
	hdr.Name = m.rel
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	in, err := os.Open(m.abs)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(w, in)
	return err
}

// BuildTar combines paths into targetDir/name as a tar container, optionally
// gzip-compressed, and returns the absolute container path.
func BuildTar(targetDir, name string, paths []string, compress bool) (string, error) {
	members, err := collectMembers(paths)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(targetDir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}

	var w io.Writer = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		w = gz
	}
	tw := tar.NewWriter(w)

	for _, m := range members {
		if err := writeTarMember(tw, m); err != nil {
			tw.Close()
			if gz != nil {
				gz.Close()
			}
			f.Close()
			return "", err
		}
	}

	if err := tw.Close(); err != nil {
		f.Close()
		return "", err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			f.Close()
			return "", err
		}
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return filepath.Abs(dest)
}

func writeTarMember(tw *tar.Writer, m member) error {
	fi, err := os.Stat(m.abs)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return err
	}
	hdr.Name = m.rel

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	in, err := os.Open(m.abs)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(tw, in)
	return err
}

// collectMembers resolves the archive member list: every regular file under
// the input paths, named relative to the inputs' common parent directory, in
// sorted order.
func collectMembers(paths []string) ([]member, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to package")
	}

	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		abs[i] = filepath.Clean(a)
	}
	parent := commonParent(abs)

	var members []member
	for _, p := range abs {
		err := filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(parent, path)
			if err != nil {
				return err
			}
			members = append(members, member{abs: path, rel: filepath.ToSlash(rel)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(members, func(i, j int) bool { return members[i].rel < members[j].rel })
	return members, nil
}

// commonParent returns the deepest directory containing all given absolute
// paths.
func commonParent(paths []string) string {
	parent := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		dir := filepath.Dir(p)
		for !isAncestor(parent, dir) {
			next := filepath.Dir(parent)
			if next == parent {
				break
			}
			parent = next
		}
	}
	return parent
}

func isAncestor(ancestor, dir string) bool {
	if ancestor == dir {
		return true
	}
	return strings.HasPrefix(dir, strings.TrimSuffix(ancestor, string(filepath.Separator))+string(filepath.Separator))
}
