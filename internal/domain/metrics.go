package domain

// ReconciliationMetrics is the snapshot served by the operational
// metrics endpoint. Values are cumulative since process start.
type ReconciliationMetrics struct {
	BoletosIssued       int64   `json:"boletos_issued"`
	BoletosPaid         int64   `json:"boletos_paid"`
	PixChargesCreated   int64   `json:"pix_charges_created"`
	PixExpired          int64   `json:"pix_expired"`
	CnabRecordsOutbound int64   `json:"cnab_records_outbound"`
	CnabRecordsInbound  int64   `json:"cnab_records_inbound"`
	ParseWarnings       int64   `json:"parse_warnings"`
	EntriesImported     int64   `json:"entries_imported"`
	MatchesExact        int64   `json:"matches_exact"`
	MatchesTolerant     int64   `json:"matches_tolerant"`
	MatchesManual       int64   `json:"matches_manual"`
	AutoMatchRate       float64 `json:"auto_match_rate"`
}
