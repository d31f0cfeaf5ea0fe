package model

// DecideAdmission returns the status a new registration receives given the
// event's live non-cancelled registration count at decision time. The count
// must be read under the same lock that guards the insert, otherwise two
// submissions can both be admitted into the last slot.
func DecideAdmission(count, capacity int, waitlistEnabled bool) (RegistrationStatus, error) {
	if count >= capacity {
		if !waitlistEnabled {
			return "", ErrEventFull
		}
		return RegistrationWaitlisted, nil
	}
	return RegistrationRegistered, nil
}
