package utils

const pageSizeDefault = 50
const pageSizeMax = 200

// PaginationParams calculates the offset and limit for a list query.
// Nil or out-of-range values fall back to the defaults; the limit is capped
// at pageSizeMax.
func PaginationParams(offset *int, limit *int) (int, int) {
	finalOffset := 0
	finalLimit := pageSizeDefault

	if offset != nil && *offset >= 0 {
		finalOffset = *offset
	}

	if limit != nil && *limit > 0 {
		finalLimit = min(*limit, pageSizeMax)
	}

	return finalOffset, finalLimit
}
