package utils

// Ptr returns a pointer to v, for optional config fields set from literals.
//
//	cfg.Temperature = utils.Ptr(0.2)
func Ptr[T any](v T) *T {
	return &v
}
