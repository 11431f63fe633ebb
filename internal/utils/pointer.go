package utils

// BoolPtr returns a pointer to the given bool value.
func BoolPtr(v bool) *bool { return &v }
