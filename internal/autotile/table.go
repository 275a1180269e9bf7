package autotile

// TilesPerGroup is the number of precomposed variants in one autotile group.
const TilesPerGroup = 48

// Neighbor mask bits. The order matches RMXP's TileDrawingHelper neighbor table.
const (
	MaskN  uint8 = 0x01
	MaskNE uint8 = 0x02
	MaskE  uint8 = 0x04
	MaskSE uint8 = 0x08
	MaskS  uint8 = 0x10
	MaskSW uint8 = 0x20
	MaskW  uint8 = 0x40
	MaskNW uint8 = 0x80
)

// Direction is one of the eight Moore neighbors of a cell. Y grows downward.
type Direction struct {
	Bit    uint8
	DX, DY int
	Name   string
}

// Directions lists the neighbors in bit order.
var Directions = [8]Direction{
	{MaskN, 0, -1, "N"},
	{MaskNE, 1, -1, "NE"},
	{MaskE, 1, 0, "E"},
	{MaskSE, 1, 1, "SE"},
	{MaskS, 0, 1, "S"},
	{MaskSW, -1, 1, "SW"},
	{MaskW, -1, 0, "W"},
	{MaskNW, -1, -1, "NW"},
}

// variantTable maps a neighbor mask to a variant index inside a 48-tile group.
// Each row covers 16 consecutive masks, starting at 0x00.
var variantTable = [256]uint8{
	46, 44, 46, 44, 43, 41, 43, 40, 46, 44, 46, 44, 43, 41, 43, 40,
	42, 32, 42, 32, 35, 19, 35, 18, 42, 32, 42, 32, 34, 17, 34, 16,
	46, 44, 46, 44, 43, 41, 43, 40, 46, 44, 46, 44, 43, 41, 43, 40,
	42, 32, 42, 32, 35, 19, 35, 18, 42, 32, 42, 32, 34, 17, 34, 16,
	45, 39, 45, 39, 33, 31, 33, 29, 45, 39, 45, 39, 33, 31, 33, 29,
	37, 27, 37, 27, 23, 15, 23, 13, 37, 27, 37, 27, 22, 11, 22, 9,
	45, 39, 45, 39, 33, 31, 33, 29, 45, 39, 45, 39, 33, 31, 33, 29,
	36, 26, 36, 26, 21, 7, 21, 5, 36, 26, 36, 26, 20, 3, 20, 1,
	46, 44, 46, 44, 43, 41, 43, 40, 46, 44, 46, 44, 43, 41, 43, 40,
	42, 32, 42, 32, 35, 19, 35, 18, 42, 32, 42, 32, 34, 17, 34, 16,
	46, 44, 46, 44, 43, 41, 43, 40, 46, 44, 46, 44, 43, 41, 43, 40,
	42, 32, 42, 32, 35, 19, 35, 18, 42, 32, 42, 32, 34, 17, 34, 16,
	45, 38, 45, 38, 33, 30, 33, 28, 45, 38, 45, 38, 33, 30, 33, 28,
	37, 25, 37, 25, 23, 14, 23, 12, 37, 25, 37, 25, 22, 10, 22, 8,
	45, 38, 45, 38, 33, 30, 33, 28, 45, 38, 45, 38, 33, 30, 33, 28,
	36, 24, 36, 24, 21, 6, 21, 4, 36, 24, 36, 24, 20, 2, 20, 0,
}

// VariantFor returns the variant index for a neighbor mask.
func VariantFor(mask uint8) int {
	return int(variantTable[mask])
}
