package utils

import "time"

func IntPtr(i int) *int {
	return &i
}

func StringPtr(s string) *string {
	return &s
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func PtrTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// FilterSliceString returns slice without any element equal to filter.
func FilterSliceString(slice []string, filter string) []string {
	var out = make([]string, 0, len(slice))
	for _, v := range slice {
		if v == filter {
			continue
		}
		out = append(out, v)
	}
	return out
}
