package product

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoarchive/sentinel2/internal/domain"
)

const safeName = "S2A_MSIL1C_20210101T103421_N0300_R065_T32TMT_20210101T123456.SAFE"

const mtdL1C = `<?xml version="1.0" encoding="UTF-8"?>
<n1:Level-1C_User_Product xmlns:n1="https://psd-14.sentinel2.eo.esa.int/PSD/User_Product_Level-1C.xsd">
  <n1:General_Info>
    <Product_Info>
      <PRODUCT_START_TIME>2021-01-01T10:34:21.024Z</PRODUCT_START_TIME>
      <PRODUCT_STOP_TIME>2021-01-01T10:36:21.024Z</PRODUCT_STOP_TIME>
      <GENERATION_TIME>2021-01-01T12:34:56.000Z</GENERATION_TIME>
      <Datatake datatakeIdentifier="GS2A_20210101T103421_028929_N03.00">
        <SENSING_ORBIT_DIRECTION>DESCENDING</SENSING_ORBIT_DIRECTION>
      </Datatake>
    </Product_Info>
  </n1:General_Info>
  <n1:Geometric_Info>
    <Product_Footprint>
      <Product_Footprint>
        <Global_Footprint>
          <EXT_POS_LIST>46.0 10.0 46.0 11.0 47.0 11.0 46.0 10.0</EXT_POS_LIST>
        </Global_Footprint>
      </Product_Footprint>
    </Product_Footprint>
  </n1:Geometric_Info>
  <n1:Quality_Indicators_Info>
    <Cloud_Coverage_Assessment>12.5</Cloud_Coverage_Assessment>
    <Snow_Coverage_Assessment>0.8</Snow_Coverage_Assessment>
  </n1:Quality_Indicators_Info>
</n1:Level-1C_User_Product>`

func writeSAFEProduct(t *testing.T, dir, name, mtd string) string {
	t.Helper()
	productDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(productDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(productDir, "MTD_MSIL1C.xml"), []byte(mtd), 0644))
	return productDir
}

func TestSAFEParseFilename(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)

	fields := d.ParseFilename("/inbox/" + safeName)
	require.NotNil(t, fields)

	assert.Equal(t, "S2A", fields["mission"])
	assert.Equal(t, "MSIL1C", fields["product_type"])
	assert.Equal(t, "20210101T103421", fields["validity_start"])
	assert.Equal(t, "0300", fields["processing_baseline"])
	assert.Equal(t, "065", fields["relative_orbit"])
	assert.Equal(t, "32TMT", fields["tile_number"])
	assert.Equal(t, "20210101T123456", fields["creation_date"])
}

func TestSAFEIdentify(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)

	assert.True(t, d.Identify([]string{"/inbox/" + safeName}))
	assert.False(t, d.Identify([]string{"/inbox/" + safeName + ".zip"}), "packaged name on unpackaged kind")
	assert.False(t, d.Identify([]string{"/inbox/" + safeName, "/inbox/" + safeName}), "wrong cardinality")
	assert.False(t, d.Identify(nil))

	packaged := NewSAFEProduct("MSIL1C", true)
	assert.True(t, packaged.Identify([]string{"/inbox/" + safeName + ".zip"}))
	assert.False(t, packaged.Identify([]string{"/inbox/" + safeName}))
}

func TestSAFEAnalyzeFilenameOnly(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)

	props, err := d.Analyze([]string{"/inbox/" + safeName}, true)
	require.NoError(t, err)

	assert.Equal(t, "S2A_MSIL1C_20210101T103421_N0300_R065_T32TMT_20210101T123456", props.Core.ProductName)
	assert.Equal(t, safeName, props.Core.PhysicalName)
	assert.Equal(t, "2021-01-01T10:34:21Z", props.Core.ValidityStart.Format("2006-01-02T15:04:05Z"))
	assert.Equal(t, "2021-01-01T12:34:56Z", props.Core.CreationDate.Format("2006-01-02T15:04:05Z"))
	assert.Equal(t, "S2A", props.Sentinel2.Mission)
	require.NotNil(t, props.Sentinel2.ProcessingBaseline)
	assert.Equal(t, 300, *props.Sentinel2.ProcessingBaseline)
	require.NotNil(t, props.Sentinel2.RelativeOrbit)
	assert.Equal(t, 65, *props.Sentinel2.RelativeOrbit)
	assert.Equal(t, "32TMT", props.Sentinel2.TileNumber)
	assert.Nil(t, props.Sentinel2.AbsoluteOrbit, "absolute orbit comes from the document only")
}

func TestSAFEMissionPlaceholderNormalization(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)
	name := "S2__MSIL1C_20210101T103421_N0300_R065_T32TMT_20210101T123456.SAFE"

	props, err := d.Analyze([]string{name}, true)
	require.NoError(t, err)
	assert.Equal(t, "S2", props.Sentinel2.Mission)
}

func TestSAFEAnalyzeWithDescriptor(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)
	productDir := writeSAFEProduct(t, t.TempDir(), safeName, mtdL1C)

	props, err := d.Analyze([]string{productDir}, false)
	require.NoError(t, err)

	// Document values supersede filename values.
	assert.Equal(t, "2021-01-01T10:34:21.024Z", props.Core.ValidityStart.Format("2006-01-02T15:04:05.000Z"))
	assert.Equal(t, "2021-01-01T10:36:21.024Z", props.Core.ValidityStop.Format("2006-01-02T15:04:05.000Z"))

	assert.Equal(t, "GS2A_20210101T103421_028929_N03.00", props.Sentinel2.DatatakeID)
	require.NotNil(t, props.Sentinel2.AbsoluteOrbit)
	assert.Equal(t, 28929, *props.Sentinel2.AbsoluteOrbit, "absolute orbit sliced from datatake id characters 21-27")
	assert.Equal(t, "descending", props.Sentinel2.OrbitDirection)

	require.NotNil(t, props.Core.Footprint)
	ring := (*props.Core.Footprint)[0]
	assert.Equal(t, 10.0, ring[0][0], "first point longitude")
	assert.Equal(t, 46.0, ring[0][1], "first point latitude")
	assert.True(t, ring.Closed())

	require.NotNil(t, props.Sentinel2.CloudCover)
	assert.Equal(t, 12.5, *props.Sentinel2.CloudCover)
	require.NotNil(t, props.Sentinel2.SnowCover)
	assert.Equal(t, 0.8, *props.Sentinel2.SnowCover)
}

func TestSAFEAnalyzeSnowCoverOptional(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)
	mtd := `<?xml version="1.0"?>
<n1:Level-1C_User_Product xmlns:n1="https://psd-14.sentinel2.eo.esa.int/PSD/User_Product_Level-1C.xsd">
  <n1:General_Info>
    <Product_Info>
      <PRODUCT_START_TIME>2021-01-01T10:34:21.024Z</PRODUCT_START_TIME>
      <PRODUCT_STOP_TIME>2021-01-01T10:36:21.024Z</PRODUCT_STOP_TIME>
      <GENERATION_TIME>2021-01-01T12:34:56.000Z</GENERATION_TIME>
      <Datatake datatakeIdentifier="GS2A_20210101T103421_028929_N03.00">
        <SENSING_ORBIT_DIRECTION>ASCENDING</SENSING_ORBIT_DIRECTION>
      </Datatake>
    </Product_Info>
  </n1:General_Info>
  <n1:Geometric_Info>
    <Global_Footprint>
      <EXT_POS_LIST>46.0 10.0 46.0 11.0 47.0 11.0 46.0 10.0</EXT_POS_LIST>
    </Global_Footprint>
  </n1:Geometric_Info>
  <n1:Quality_Indicators_Info>
    <Cloud_Coverage_Assessment>0.0</Cloud_Coverage_Assessment>
  </n1:Quality_Indicators_Info>
</n1:Level-1C_User_Product>`
	productDir := writeSAFEProduct(t, t.TempDir(), safeName, mtd)

	props, err := d.Analyze([]string{productDir}, false)
	require.NoError(t, err)

	assert.Equal(t, "ascending", props.Sentinel2.OrbitDirection)
	assert.Nil(t, props.Sentinel2.SnowCover)
	require.NotNil(t, props.Sentinel2.CloudCover)
	assert.Equal(t, 0.0, *props.Sentinel2.CloudCover)
}

func TestSAFEAnalyzeMalformedSnowCoverFails(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)
	mtd := `<?xml version="1.0"?>
<n1:Level-1C_User_Product xmlns:n1="https://psd-14.sentinel2.eo.esa.int/PSD/User_Product_Level-1C.xsd">
  <n1:General_Info>
    <Product_Info>
      <PRODUCT_START_TIME>2021-01-01T10:34:21.024Z</PRODUCT_START_TIME>
      <PRODUCT_STOP_TIME>2021-01-01T10:36:21.024Z</PRODUCT_STOP_TIME>
      <GENERATION_TIME>2021-01-01T12:34:56.000Z</GENERATION_TIME>
      <Datatake datatakeIdentifier="GS2A_20210101T103421_028929_N03.00">
        <SENSING_ORBIT_DIRECTION>ASCENDING</SENSING_ORBIT_DIRECTION>
      </Datatake>
    </Product_Info>
  </n1:General_Info>
  <n1:Geometric_Info>
    <Global_Footprint>
      <EXT_POS_LIST>46.0 10.0 46.0 11.0 47.0 11.0 46.0 10.0</EXT_POS_LIST>
    </Global_Footprint>
  </n1:Geometric_Info>
  <n1:Quality_Indicators_Info>
    <Cloud_Coverage_Assessment>0.0</Cloud_Coverage_Assessment>
    <Snow_Coverage_Assessment>not-a-number</Snow_Coverage_Assessment>
  </n1:Quality_Indicators_Info>
</n1:Level-1C_User_Product>`
	productDir := writeSAFEProduct(t, t.TempDir(), safeName, mtd)

	_, err := d.Analyze([]string{productDir}, false)
	require.Error(t, err)
	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Snow_Coverage_Assessment", parseErr.Element)
}

func TestSAFEAnalyzeMissingCloudCoverFails(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)
	mtd := `<?xml version="1.0"?>
<n1:Level-1C_User_Product xmlns:n1="https://psd-14.sentinel2.eo.esa.int/PSD/User_Product_Level-1C.xsd">
  <n1:General_Info>
    <Product_Info>
      <PRODUCT_START_TIME>2021-01-01T10:34:21.024Z</PRODUCT_START_TIME>
      <PRODUCT_STOP_TIME>2021-01-01T10:36:21.024Z</PRODUCT_STOP_TIME>
      <GENERATION_TIME>2021-01-01T12:34:56.000Z</GENERATION_TIME>
      <Datatake datatakeIdentifier="GS2A_20210101T103421_028929_N03.00">
        <SENSING_ORBIT_DIRECTION>ASCENDING</SENSING_ORBIT_DIRECTION>
      </Datatake>
    </Product_Info>
  </n1:General_Info>
  <n1:Geometric_Info>
    <Global_Footprint>
      <EXT_POS_LIST>46.0 10.0 46.0 11.0 47.0 11.0 46.0 10.0</EXT_POS_LIST>
    </Global_Footprint>
  </n1:Geometric_Info>
  <n1:Quality_Indicators_Info/>
</n1:Level-1C_User_Product>`
	productDir := writeSAFEProduct(t, t.TempDir(), safeName, mtd)

	_, err := d.Analyze([]string{productDir}, false)
	require.Error(t, err)
	var parseErr *domain.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestSAFEAnalyzePackaged(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", true)
	tmpDir := t.TempDir()
	zipPath := filepath.Join(tmpDir, safeName+".zip")

	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create(safeName + "/MTD_MSIL1C.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(mtdL1C))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	props, err := d.Analyze([]string{zipPath}, false)
	require.NoError(t, err)

	assert.Equal(t, "S2A_MSIL1C_20210101T103421_N0300_R065_T32TMT_20210101T123456", props.Core.ProductName)
	require.NotNil(t, props.Sentinel2.AbsoluteOrbit)
	assert.Equal(t, 28929, *props.Sentinel2.AbsoluteOrbit)
}

func TestSAFEArchivePath(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)
	name := "S2B_MSIL1C_20210305T103421_N0300_R065_T32TMT_20210305T123456.SAFE"

	props, err := d.Analyze([]string{name}, true)
	require.NoError(t, err)

	got, err := d.ArchivePath(props)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("S2B", "MSIL1C", "2021", "03", "05"), got)
}

func TestSAFEArchivePathGenericMission(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)
	name := "S2__MSIL1C_20210305T103421_N0300_R065_T32TMT_20210305T123456.SAFE"

	props, err := d.Analyze([]string{name}, true)
	require.NoError(t, err)

	got, err := d.ArchivePath(props)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("S2", "MSIL1C", "2021", "03", "05"), got)
}

func TestSAFEExportBuildsZip(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", false)
	productDir := writeSAFEProduct(t, t.TempDir(), safeName, mtdL1C)
	targetDir := t.TempDir()

	dest, err := d.Export(targetDir, []string{productDir})
	require.NoError(t, err)
	assert.Equal(t, safeName+".zip", filepath.Base(dest))

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, safeName+"/MTD_MSIL1C.xml", zr.File[0].Name)
}

func TestSAFEExportPackagedPassThrough(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", true)
	srcDir := t.TempDir()
	targetDir := t.TempDir()

	src := filepath.Join(srcDir, safeName+".zip")
	require.NoError(t, os.WriteFile(src, []byte("existing container"), 0644))

	dest, err := d.Export(targetDir, []string{src})
	require.NoError(t, err)
	assert.Equal(t, safeName+".zip", filepath.Base(dest))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("existing container"), content)
}

func TestSAFEExportPackagedCardinality(t *testing.T) {
	d := NewSAFEProduct("MSIL1C", true)
	_, err := d.Export(t.TempDir(), []string{"a.zip", "b.zip"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
