package cnab

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/obrafin/recon-go/internal/codec"
	"github.com/obrafin/recon-go/internal/domain"
)

// ParseResult carries everything a return file yielded: the decoded
// entries plus one warning per line that could not be used. A bad line
// never discards the batch.
type ParseResult struct {
	Entries  []domain.ReturnEntry
	Warnings []domain.ParseWarning
}

// ParseReturn splits raw return-file text into fixed-width lines,
// decodes each according to the layout and classifies detail records.
// Malformed or unknown lines are reported as warnings, not errors.
func ParseReturn(layout domain.CnabLayout, raw string) (*ParseResult, error) {
	if layout != domain.Cnab240 && layout != domain.Cnab400 {
		return nil, &domain.ErrValidation{Field: "layout", Message: fmt.Sprintf("unsupported CNAB layout %d", layout)}
	}

	res := &ParseResult{}
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	lineNo := 0
	for _, line := range lines {
		if line == "" {
			continue // trailing newline or blank separator
		}
		lineNo++

		if len(line) != int(layout) {
			res.Warnings = append(res.Warnings, domain.ParseWarning{
				LineNumber: lineNo,
				Reason:     fmt.Sprintf("line is %d columns, expected %d", len(line), int(layout)),
			})
			continue
		}

		switch layout {
		case domain.Cnab240:
			parseLine240(line, lineNo, res)
		case domain.Cnab400:
			parseLine400(line, lineNo, res)
		}
	}
	return res, nil
}

func parseLine240(line string, lineNo int, res *ParseResult) {
	// Record type sits after bank(3)+lot(4); segment marker after seq.
	recordType := line[7]
	switch recordType {
	case '0', '1', '5', '9':
		// headers and trailers carry no title data
		return
	case '3':
		segment := line[13]
		if segment != 'T' {
			res.Warnings = append(res.Warnings, domain.ParseWarning{
				LineNumber: lineNo,
				Reason:     fmt.Sprintf("unsupported return segment %q", string(segment)),
			})
			return
		}
		values, err := codec.Decode(segmentT240, line)
		if err != nil {
			res.Warnings = append(res.Warnings, domain.ParseWarning{LineNumber: lineNo, Reason: err.Error()})
			return
		}
		appendEntry(res, lineNo, values["our_number"], values["movement_code"], values["paid_value"], values["payment_date"], "02012006")
	default:
		res.Warnings = append(res.Warnings, domain.ParseWarning{
			LineNumber: lineNo,
			Reason:     fmt.Sprintf("unknown record type %q", string(recordType)),
		})
	}
}

func parseLine400(line string, lineNo int, res *ParseResult) {
	switch line[0] {
	case '0', '9':
		return
	case '1':
		values, err := codec.Decode(detail400, line)
		if err != nil {
			res.Warnings = append(res.Warnings, domain.ParseWarning{LineNumber: lineNo, Reason: err.Error()})
			return
		}
		appendEntry(res, lineNo, values["our_number"], values["occurrence_code"], values["paid_value"], values["occurrence_date"], "020106")
	default:
		res.Warnings = append(res.Warnings, domain.ParseWarning{
			LineNumber: lineNo,
			Reason:     fmt.Sprintf("unknown record type %q", string(line[0])),
		})
	}
}

func appendEntry(res *ParseResult, lineNo int, ourNumber, occurrenceCode, paidValue, dateRaw, dateLayout string) {
	on, err := strconv.ParseInt(ourNumber, 10, 64)
	if err != nil || on <= 0 {
		res.Warnings = append(res.Warnings, domain.ParseWarning{
			LineNumber: lineNo,
			Reason:     fmt.Sprintf("invalid our-number %q", ourNumber),
		})
		return
	}

	code := occurrenceCode
	if len(code) == 1 {
		code = "0" + code // right-aligned zero padding strips the leading zero
	}

	entry := domain.ReturnEntry{
		LineNumber:     lineNo,
		OurNumber:      on,
		OccurrenceCode: code,
		Occurrence:     OccurrenceFromCode(code),
		PaidValue:      centsValue(paidValue),
	}
	if dateRaw != "" {
		padded := dateRaw
		for len(padded) < len(dateLayout) {
			padded = "0" + padded
		}
		if d, err := time.Parse(dateLayout, padded); err == nil && !d.IsZero() {
			entry.PaymentDate = &d
		}
	}
	res.Entries = append(res.Entries, entry)
}
