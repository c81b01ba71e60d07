package domain

// Service is the backend entity whose discount percentage is viewed and
// edited by the client.
type Service struct {
	ID       int `json:"id"`
	Discount int `json:"discount"`
}

// ValidDiscount reports whether a discount percentage is within [0, 100].
func ValidDiscount(percent int) bool {
	return percent >= 0 && percent <= 100
}
