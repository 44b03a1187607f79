package cnab

import "github.com/obrafin/recon-go/internal/codec"

// CNAB 240 record specs. Every record is exactly 240 columns; trailing
// filler fields absorb the positions this engine does not emit.

var fileHeader240 = codec.RecordSpec{
	Name: "cnab240.file_header",
	Fields: []codec.FieldSpec{
		{Name: "bank", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "lot", Width: 4, Align: codec.Right, Pad: '0'},
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "filler1", Width: 9, Align: codec.Left, Pad: ' '},
		{Name: "company_document", Width: 14, Align: codec.Right, Pad: '0'},
		{Name: "agency", Width: 5, Align: codec.Right, Pad: '0'},
		{Name: "account", Width: 12, Align: codec.Right, Pad: '0'},
		{Name: "company_name", Width: 30, Align: codec.Left, Pad: ' '},
		{Name: "bank_name", Width: 30, Align: codec.Left, Pad: ' '},
		{Name: "generation_date", Width: 8, Align: codec.Right, Pad: '0'},
		{Name: "generation_time", Width: 6, Align: codec.Right, Pad: '0'},
		{Name: "sequence", Width: 6, Align: codec.Right, Pad: '0'},
		{Name: "layout_version", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "filler2", Width: 109, Align: codec.Left, Pad: ' '},
	},
}

var lotHeader240 = codec.RecordSpec{
	Name: "cnab240.lot_header",
	Fields: []codec.FieldSpec{
		{Name: "bank", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "lot", Width: 4, Align: codec.Right, Pad: '0'},
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "operation", Width: 1, Align: codec.Left, Pad: ' '},
		{Name: "service", Width: 2, Align: codec.Right, Pad: '0'},
		{Name: "filler1", Width: 2, Align: codec.Left, Pad: ' '},
		{Name: "company_document", Width: 14, Align: codec.Right, Pad: '0'},
		{Name: "agency", Width: 5, Align: codec.Right, Pad: '0'},
		{Name: "account", Width: 12, Align: codec.Right, Pad: '0'},
		{Name: "company_name", Width: 30, Align: codec.Left, Pad: ' '},
		{Name: "filler2", Width: 166, Align: codec.Left, Pad: ' '},
	},
}

// Segment P: basic title data.
var segmentP240 = codec.RecordSpec{
	Name: "cnab240.segment_p",
	Fields: []codec.FieldSpec{
		{Name: "bank", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "lot", Width: 4, Align: codec.Right, Pad: '0'},
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "record_seq", Width: 5, Align: codec.Right, Pad: '0'},
		{Name: "segment", Width: 1, Align: codec.Left, Pad: ' '},
		{Name: "filler1", Width: 1, Align: codec.Left, Pad: ' '},
		{Name: "movement_code", Width: 2, Align: codec.Right, Pad: '0'},
		{Name: "agency", Width: 5, Align: codec.Right, Pad: '0'},
		{Name: "account", Width: 12, Align: codec.Right, Pad: '0'},
		{Name: "our_number", Width: 20, Align: codec.Right, Pad: '0'},
		{Name: "wallet", Width: 2, Align: codec.Right, Pad: '0'},
		{Name: "document_number", Width: 15, Align: codec.Left, Pad: ' '},
		{Name: "due_date", Width: 8, Align: codec.Right, Pad: '0'},
		{Name: "face_value", Width: 13, Align: codec.Right, Pad: '0'},
		{Name: "filler2", Width: 148, Align: codec.Left, Pad: ' '},
	},
}

// Segment Q: payer data.
var segmentQ240 = codec.RecordSpec{
	Name: "cnab240.segment_q",
	Fields: []codec.FieldSpec{
		{Name: "bank", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "lot", Width: 4, Align: codec.Right, Pad: '0'},
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "record_seq", Width: 5, Align: codec.Right, Pad: '0'},
		{Name: "segment", Width: 1, Align: codec.Left, Pad: ' '},
		{Name: "filler1", Width: 1, Align: codec.Left, Pad: ' '},
		{Name: "movement_code", Width: 2, Align: codec.Right, Pad: '0'},
		{Name: "payer_document_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "payer_document", Width: 15, Align: codec.Right, Pad: '0'},
		{Name: "payer_name", Width: 40, Align: codec.Left, Pad: ' '},
		{Name: "payer_address", Width: 40, Align: codec.Left, Pad: ' '},
		{Name: "payer_city", Width: 15, Align: codec.Left, Pad: ' '},
		{Name: "payer_state", Width: 2, Align: codec.Left, Pad: ' '},
		{Name: "payer_zip", Width: 8, Align: codec.Right, Pad: '0'},
		{Name: "filler2", Width: 102, Align: codec.Left, Pad: ' '},
	},
}

// Segment R: fine and interest terms.
var segmentR240 = codec.RecordSpec{
	Name: "cnab240.segment_r",
	Fields: []codec.FieldSpec{
		{Name: "bank", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "lot", Width: 4, Align: codec.Right, Pad: '0'},
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "record_seq", Width: 5, Align: codec.Right, Pad: '0'},
		{Name: "segment", Width: 1, Align: codec.Left, Pad: ' '},
		{Name: "filler1", Width: 1, Align: codec.Left, Pad: ' '},
		{Name: "movement_code", Width: 2, Align: codec.Right, Pad: '0'},
		{Name: "fine_code", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "fine_date", Width: 8, Align: codec.Right, Pad: '0'},
		{Name: "fine_value", Width: 15, Align: codec.Right, Pad: '0'},
		{Name: "interest_code", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "interest_date", Width: 8, Align: codec.Right, Pad: '0'},
		{Name: "interest_value", Width: 15, Align: codec.Right, Pad: '0'},
		{Name: "filler2", Width: 175, Align: codec.Left, Pad: ' '},
	},
}

// Segment T: return-file title occurrence (inbound only).
var segmentT240 = codec.RecordSpec{
	Name: "cnab240.segment_t",
	Fields: []codec.FieldSpec{
		{Name: "bank", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "lot", Width: 4, Align: codec.Right, Pad: '0'},
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "record_seq", Width: 5, Align: codec.Right, Pad: '0'},
		{Name: "segment", Width: 1, Align: codec.Left, Pad: ' '},
		{Name: "filler1", Width: 1, Align: codec.Left, Pad: ' '},
		{Name: "movement_code", Width: 2, Align: codec.Right, Pad: '0'},
		{Name: "our_number", Width: 20, Align: codec.Right, Pad: '0'},
		{Name: "paid_value", Width: 15, Align: codec.Right, Pad: '0'},
		{Name: "payment_date", Width: 8, Align: codec.Right, Pad: '0'},
		{Name: "filler2", Width: 180, Align: codec.Left, Pad: ' '},
	},
}

var lotTrailer240 = codec.RecordSpec{
	Name: "cnab240.lot_trailer",
	Fields: []codec.FieldSpec{
		{Name: "bank", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "lot", Width: 4, Align: codec.Right, Pad: '0'},
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "filler1", Width: 9, Align: codec.Left, Pad: ' '},
		{Name: "lot_record_count", Width: 6, Align: codec.Right, Pad: '0'},
		{Name: "total_value", Width: 17, Align: codec.Right, Pad: '0'},
		{Name: "filler2", Width: 200, Align: codec.Left, Pad: ' '},
	},
}

var fileTrailer240 = codec.RecordSpec{
	Name: "cnab240.file_trailer",
	Fields: []codec.FieldSpec{
		{Name: "bank", Width: 3, Align: codec.Right, Pad: '0'},
		{Name: "lot", Width: 4, Align: codec.Right, Pad: '0'},
		{Name: "record_type", Width: 1, Align: codec.Right, Pad: '0'},
		{Name: "filler1", Width: 9, Align: codec.Left, Pad: ' '},
		{Name: "lot_count", Width: 6, Align: codec.Right, Pad: '0'},
		{Name: "record_count", Width: 6, Align: codec.Right, Pad: '0'},
		{Name: "filler2", Width: 211, Align: codec.Left, Pad: ' '},
	},
}
