package model

// ReserveStatus labels a projected reserve balance.
// Keep these values stable; they are intended for CSV output.
type ReserveStatus string

const (
	ReserveDeficit  ReserveStatus = "DEFICIT"
	ReserveBalanced ReserveStatus = "BALANCED"
	ReserveSurplus  ReserveStatus = "SURPLUS"
)

// ReserveStatusFrom classifies a reserve; anything within tolerance of zero is balanced.
func ReserveStatusFrom(reserve, tolerance float64) ReserveStatus {
	switch {
	case reserve <= -tolerance:
		return ReserveDeficit
	case reserve >= tolerance:
		return ReserveSurplus
	default:
		return ReserveBalanced
	}
}
