package domain

import "regexp"

// SequenceIDPattern is the accepted shape of an OEIS-style sequence
// identifier: the letter A followed by at least six digits.
const SequenceIDPattern = `^A[0-9]{6,}$`

var sequenceIDRegexp = regexp.MustCompile(SequenceIDPattern)

// ValidateSequenceID rejects identifiers that do not match the
// canonical A-number form.
func ValidateSequenceID(id string) error {
	if !sequenceIDRegexp.MatchString(id) {
		return InvalidParamsf("Invalid sequence ID %q: expected an A-number such as A000045", id)
	}
	return nil
}
