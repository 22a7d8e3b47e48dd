package journal

const Schema = `
CREATE TABLE IF NOT EXISTS activity (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	order_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	type TEXT NOT NULL,
	source TEXT NOT NULL,
	mode TEXT NOT NULL,
	status TEXT NOT NULL,
	fill_qty TEXT NOT NULL,
	fill_price TEXT NOT NULL,
	cash_delta TEXT NOT NULL,
	reason TEXT NOT NULL,
	fingerprint TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_time ON activity(time);

CREATE TABLE IF NOT EXISTS state (
	name TEXT PRIMARY KEY,
	blob BLOB NOT NULL,
	updated DATETIME NOT NULL
);
`
