package postgres

// Schema is the DDL for every table the store uses.
const Schema = `
CREATE TABLE IF NOT EXISTS wallets (
    user_id            TEXT PRIMARY KEY,
    available_balance  BIGINT NOT NULL DEFAULT 0 CHECK (available_balance >= 0),
    pending_balance    BIGINT NOT NULL DEFAULT 0 CHECK (pending_balance >= 0),
    lifetime_earnings  BIGINT NOT NULL DEFAULT 0,
    lifetime_spent     BIGINT NOT NULL DEFAULT 0,
    version            BIGINT NOT NULL DEFAULT 0,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS nfts (
    id           TEXT PRIMARY KEY,
    creator_id   TEXT NOT NULL,
    owner_id     TEXT NOT NULL,
    royalty_bps  BIGINT NOT NULL DEFAULT 0,
    sold_count   BIGINT NOT NULL DEFAULT 0,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
    id                   TEXT PRIMARY KEY,
    type                 TEXT NOT NULL,
    from_user_id         TEXT,
    to_user_id           TEXT,
    creator_id           TEXT,
    nft_id               TEXT REFERENCES nfts(id),
    amount               BIGINT NOT NULL CHECK (amount > 0),
    royalty_bps          BIGINT NOT NULL DEFAULT 0,
    platform_fee         BIGINT NOT NULL DEFAULT 0,
    creator_royalty      BIGINT NOT NULL DEFAULT 0,
    recipient_earnings   BIGINT NOT NULL DEFAULT 0,
    funding              TEXT NOT NULL,
    external_payment_id  TEXT,
    gateway_txid         TEXT,
    status               TEXT NOT NULL,
    failure_reason       TEXT,
    metadata             JSONB,
    created_at           TIMESTAMPTZ NOT NULL,
    updated_at           TIMESTAMPTZ NOT NULL,
    approved_at          TIMESTAMPTZ,
    completed_at         TIMESTAMPTZ,
    CONSTRAINT transactions_external_payment_id_key UNIQUE (external_payment_id)
);

CREATE INDEX IF NOT EXISTS transactions_status_updated_at_idx ON transactions (status, updated_at);
CREATE INDEX IF NOT EXISTS transactions_from_user_idx ON transactions (from_user_id);
CREATE INDEX IF NOT EXISTS transactions_to_user_idx ON transactions (to_user_id);

CREATE TABLE IF NOT EXISTS ledger_entries (
    entry_id        TEXT PRIMARY KEY,
    transaction_id  TEXT NOT NULL REFERENCES transactions(id),
    user_id         TEXT,
    account_type    TEXT NOT NULL,
    amount          BIGINT NOT NULL,
    description     TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS ledger_entries_transaction_idx ON ledger_entries (transaction_id);

CREATE TABLE IF NOT EXISTS ad_revenue_distributions (
    creator_id      TEXT NOT NULL,
    period_key      TEXT NOT NULL,
    transaction_id  TEXT NOT NULL REFERENCES transactions(id),
    amount          BIGINT NOT NULL,
    streams         BIGINT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (creator_id, period_key)
);

CREATE TABLE IF NOT EXISTS ad_stream_stats (
    creator_id  TEXT NOT NULL,
    day         DATE NOT NULL,
    ad_streams  BIGINT NOT NULL DEFAULT 0,
    ad_revenue  BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (creator_id, day)
);
`
