package postgres

// Schema creates the documents and embeddings tables. All statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	key            TEXT PRIMARY KEY,
	schema_version INTEGER NOT NULL DEFAULT 1,
	data           JSONB NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS embeddings (
	id         TEXT PRIMARY KEY,
	embedding  REAL[] NOT NULL,
	dimension  INTEGER NOT NULL,
	model      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// MigrationPgvector adds the pgvector column. Applied only when the
// extension could be enabled.
const MigrationPgvector = `
ALTER TABLE embeddings ADD COLUMN IF NOT EXISTS embedding_vec vector;
`
