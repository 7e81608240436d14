package cohort

import "strings"

// SelectPrimary picks the window an applicant should see by default. An
// explicitly requested id wins regardless of status. Otherwise the first open
// window is chosen, then the first upcoming, then the first closed. Ties
// within a tier resolve by source order; callers wanting date-based
// tie-breaking must pre-sort the input. The function never consults a clock,
// so identical input always yields the identical window.
func SelectPrimary(windows []Window, requestedID string) *Window {
	if requested := strings.TrimSpace(requestedID); requested != "" {
		for i := range windows {
			if strings.TrimSpace(windows[i].ID) == requested {
				return &windows[i]
			}
		}
	}

	for _, status := range []WindowStatus{StatusOpen, StatusUpcoming, StatusClosed} {
		for i := range windows {
			if windows[i].Status == status {
				return &windows[i]
			}
		}
	}
	return nil
}
