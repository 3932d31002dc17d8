// Package pesticide implements the regulatory pesticide dataset domain:
// the canonical record produced from one export row, the field
// normalizers that map raw export text onto internal taxonomies, the
// hazard-based safety score, and the parser that turns a raw export blob
// into a sequence of canonical records.
package pesticide

// Expected header columns of a dataset export (exact, case-sensitive
// names as published by the source registry).
const (
	ColActiveSubstance    = "Active substance"
	ColProductName        = "Product name"
	ColRegistrationNumber = "Registration number"
	ColApprovalStatus     = "Approval status"
	ColApprovalDate       = "Approval date"
	ColExpiryDate         = "Expiry date"
	ColApprovedCrops      = "Approved crops"
	ColMRL                = "MRL (mg/kg)"
	ColMemberStates       = "Member states"
	ColRestrictions       = "Restrictions"
	ColHazards            = "Hazard classification"
)

// ApprovalStatus is the canonical regulatory approval state of a product.
type ApprovalStatus string

const (
	StatusApproved  ApprovalStatus = "approved"
	StatusPending   ApprovalStatus = "pending"
	StatusWithdrawn ApprovalStatus = "withdrawn"
	StatusExpired   ApprovalStatus = "expired"
)

// MRLValue is one maximum-residue-limit threshold: the highest
// concentration of the substance permitted to remain on a crop.
type MRLValue struct {
	Crop  string  `json:"crop"`
	Value float64 `json:"mrl"`
	Unit  string  `json:"unit"` // "mg/kg" or "ppm", lower-cased
}

// Record is the canonical, validated form of one export row, ready for
// reconciliation against the store. It lives only for the duration of an
// import run.
type Record struct {
	ActiveSubstance    string
	ProductName        string // never empty for an accepted record
	RegistrationNumber string
	Status             ApprovalStatus
	ApprovalDate       string // ISO date string, passed through unparsed
	ExpiryDate         string
	ApprovedCrops      []string
	MRLValues          []MRLValue
	Jurisdictions      []string // upper-cased, order of first appearance
	Restrictions       []string
	HazardCodes        []string
}
