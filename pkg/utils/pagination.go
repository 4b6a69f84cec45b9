package utils

func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// ClampLimit keeps a limit query parameter inside [1, max]
func ClampLimit(limit, defaultLimit, max int) int {
	if limit < 1 {
		return defaultLimit
	}
	if limit > max {
		return max
	}
	return limit
}
