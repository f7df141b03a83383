package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wesm/imsgvault/internal/store"
)

const phoneQuery = `
	SELECT ZABCDRECORD.ZFIRSTNAME, ZABCDRECORD.ZLASTNAME, ZABCDPHONENUMBER.ZFULLNUMBER
	FROM ZABCDRECORD
	LEFT JOIN ZABCDPHONENUMBER ON ZABCDRECORD.Z_PK = ZABCDPHONENUMBER.ZOWNER
	WHERE ZABCDPHONENUMBER.ZFULLNUMBER IS NOT NULL`

const emailQuery = `
	SELECT ZABCDRECORD.ZFIRSTNAME, ZABCDRECORD.ZLASTNAME, ZABCDEMAILADDRESS.ZADDRESS
	FROM ZABCDRECORD
	LEFT JOIN ZABCDEMAILADDRESS ON ZABCDRECORD.Z_PK = ZABCDEMAILADDRESS.ZOWNER
	WHERE ZABCDEMAILADDRESS.ZADDRESS IS NOT NULL`

// ComposeName joins first and last name with a single space, or returns
// whichever one is present. ok is false when neither is present; empty
// strings count as absent.
func ComposeName(first, last sql.NullString) (name string, ok bool) {
	f := first.Valid && first.String != ""
	l := last.Valid && last.String != ""
	switch {
	case f && l:
		return first.String + " " + last.String, true
	case f:
		return first.String, true
	case l:
		return last.String, true
	default:
		return "", false
	}
}

// ReadSource opens one AddressBook database read-only and returns the
// directory it defines. An open failure returns a nil directory. A failure
// of either tuple query is reported in the error alongside whatever the
// other query produced.
func ReadSource(ctx context.Context, path string) (*Directory, error) {
	s, err := store.OpenReadOnly(ctx, path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	dir := NewDirectory()
	phoneErr := readTuples(ctx, s.DB(), phoneQuery, dir.AddPhone)
	if phoneErr != nil {
		phoneErr = fmt.Errorf("read phone numbers: %w", phoneErr)
	}
	emailErr := readTuples(ctx, s.DB(), emailQuery, dir.AddEmail)
	if emailErr != nil {
		emailErr = fmt.Errorf("read email addresses: %w", emailErr)
	}
	return dir, errors.Join(phoneErr, emailErr)
}

// readTuples scans (first, last, value) rows and passes each named value to add.
func readTuples(ctx context.Context, db *sql.DB, query string, add func(value, name string)) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var first, last, value sql.NullString
		if err := rows.Scan(&first, &last, &value); err != nil {
			return err
		}
		name, ok := ComposeName(first, last)
		if !ok || !value.Valid {
			continue
		}
		add(value.String, name)
	}
	return rows.Err()
}
