package journal

const Schema = `
CREATE TABLE IF NOT EXISTS ledger (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts DATETIME NOT NULL,
	action TEXT NOT NULL,
	symbol TEXT NOT NULL,
	close_reason TEXT NOT NULL,
	pnl TEXT NOT NULL,
	portfolio_value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_ts ON ledger(ts);
`
