package cnab

import "github.com/obrafin/recon-go/internal/codec"

// CNAB 400 record specs: one flat detail record type instead of the 240
// standard's P/Q/R segment split. Every record is exactly 400 columns
// and ends with a 6-digit record sequence.

var fileHeader400 = codec.RecordSpec{
	Name: "cnab400.file_header",
	Fields: []codec.FieldSpec{
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "remittance_code", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "remittance_literal", Width: 7, Align: codec.Left, Pad: ' '},
		{Name: "service_code", Width: 2, Align: codec.Right, Pad: '0'},
		{Name: "service_literal", Width: 15, Align: codec.Left, Pad: ' '},
		{Name: "agency", Width: 4, Align: codec.Right, Pad: '0'},
		{Name: "filler1", Width: 2, Align: codec.Left, Pad: ' '},
		{Name: "account", Width: 8, Align: codec.Right, Pad: '0'},
		{Name: "filler2", Width: 6, Align: codec.Left, Pad: ' '},
		{Name: "company_name", Width: 30, Align: codec.Left, Pad: ' '},
		{Name: "bank", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "bank_name", Width: 15, Align: codec.Left, Pad: ' '},
		{Name: "generation_date", Width: 6, Align: codec.Right, Pad: '0'},
		{Name: "filler3", Width: 294, Align: codec.Left, Pad: ' '},
		{Name: "sequence", Width: 6, Align: codec.Right, Pad: '0'},
	},
}

var detail400 = codec.RecordSpec{
	Name: "cnab400.detail",
	Fields: []codec.FieldSpec{
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "company_document_type", Width: 2, Align: codec.Right, Pad: '0'},
		{Name: "company_document", Width: 14, Align: codec.Right, Pad: '0'},
		{Name: "agency", Width: 4, Align: codec.Right, Pad: '0'},
		{Name: "account", Width: 8, Align: codec.Right, Pad: '0'},
		{Name: "filler1", Width: 12, Align: codec.Left, Pad: ' '},
		{Name: "our_number", Width: 11, Align: codec.Right, Pad: '0'},
		{Name: "our_number_dv", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "filler2", Width: 37, Align: codec.Left, Pad: ' '},
		{Name: "occurrence_code", Width: 2, Align: codec.Right, Pad: '0'},
		{Name: "document_number", Width: 10, Align: codec.Left, Pad: ' '},
		{Name: "occurrence_date", Width: 6, Align: codec.Right, Pad: '0'},
		{Name: "due_date", Width: 6, Align: codec.Right, Pad: '0'},
		{Name: "face_value", Width: 13, Align: codec.Right, Pad: '0'},
		{Name: "bank", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "charge_agency", Width: 5, Align: codec.Right, Pad: '0'},
		{Name: "filler3", Width: 13, Align: codec.Left, Pad: ' '},
		{Name: "paid_value", Width: 13, Align: codec.Right, Pad: '0'},
		{Name: "payer_document", Width: 14, Align: codec.Right, Pad: '0'},
		{Name: "payer_name", Width: 40, Align: codec.Left, Pad: ' '},
		{Name: "filler4", Width: 179, Align: codec.Left, Pad: ' '},
		{Name: "sequence", Width: 6, Align: codec.Right, Pad: '0'},
	},
}

var fileTrailer400 = codec.RecordSpec{
	Name: "cnab400.file_trailer",
	Fields: []codec.FieldSpec{
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "filler1", Width: 393, Align: codec.Left, Pad: ' '},
		{Name: "sequence", Width: 6, Align: codec.Right, Pad: '0'},
	},
}
