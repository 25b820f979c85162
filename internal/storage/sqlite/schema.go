package sqlite

// Schema creates the document and embedding tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	key            TEXT PRIMARY KEY,
	schema_version INTEGER NOT NULL DEFAULT 1,
	data           TEXT NOT NULL,
	updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS embeddings (
	id         TEXT PRIMARY KEY,
	embedding  BLOB NOT NULL,
	dimension  INTEGER NOT NULL,
	model      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_embeddings_model ON embeddings(model);
`
