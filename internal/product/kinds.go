package product

// Static product kind enumerations. The registry is built once from these
// tables; each family maps to one descriptor variant.

// UserProductKinds are the self-describing user-level imagery products
// distributed in SAFE containers.
var UserProductKinds = []string{
	"MSIL1C",
	"MSIL2A",
}

// PDIProductKinds are the datastrip and tile descriptors of the PDI layer.
var PDIProductKinds = []string{
	"MSI_L1C_DS",
	"MSI_L1C_TL",
	"MSI_L2A_DS",
	"MSI_L2A_TL",
}

// OrbitKinds are the single-file Earth Explorer orbit products.
var OrbitKinds = []string{
	"AUX_POEORB",
}

// SplitAuxKinds are the auxiliary products delivered as a data/header
// (DBL/HDR) file pair.
var SplitAuxKinds = []string{
	"AUX_GNSSRD",
	"AUX_PROQUA",
}

// CalibrationKinds are the banded GIPP calibration products.
var CalibrationKinds = []string{
	"GIP_ATMIMA",
	"GIP_ATMSAD",
	"GIP_BLINDP",
	"GIP_CLOINV",
	"GIP_CLOPAR",
	"GIP_CONVER",
	"GIP_DATATI",
	"GIP_DECOMP",
	"GIP_EARMOD",
	"GIP_ECMWFP",
	"GIP_G2PARA",
	"GIP_G2PARE",
	"GIP_GEOPAR",
	"GIP_INTDET",
	"GIP_INVLOC",
	"GIP_JP2KPA",
	"GIP_L2ACAC",
	"GIP_L2ACSC",
	"GIP_LREXTR",
	"GIP_MASPAR",
	"GIP_OLQCPA",
	"GIP_PRDLOC",
	"GIP_PROBA2",
	"GIP_PROBAS",
	"GIP_R2ABCA",
	"GIP_R2BINN",
	"GIP_R2CRCO",
	"GIP_R2DECT",
	"GIP_R2DEFI",
	"GIP_R2DENT",
	"GIP_R2DEPI",
	"GIP_R2EOB2",
	"GIP_R2EQOG",
	"GIP_R2L2NC",
	"GIP_R2NOMO",
	"GIP_R2PARA",
	"GIP_R2SWIR",
	"GIP_R2WAFI",
	"GIP_RESPAR",
	"GIP_SPAMOD",
	"GIP_TILPAR",
	"GIP_VIEDIR",
}

// TimeCorrectionKinds are the plain-text IERS time-correction products.
var TimeCorrectionKinds = []string{
	"AUX_UT1UTC",
}
