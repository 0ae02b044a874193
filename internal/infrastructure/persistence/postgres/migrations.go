package postgres

// Migrations returns the schema steps in version order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_hub_kv", SQL: createHubKV},
		{Version: 2, Name: "hub_kv_updated_at", SQL: touchUpdatedAt},
	}
}

// One row per key. value holds a whole JSON collection or a bare scalar such
// as the theme preference.
const createHubKV = `
CREATE TABLE IF NOT EXISTS hub_kv (
    namespace  VARCHAR(64)  NOT NULL,
    key        VARCHAR(128) NOT NULL,
    value      BYTEA        NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (namespace, key)
);
`

const touchUpdatedAt = `
CREATE OR REPLACE FUNCTION hub_kv_touch_updated_at()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS hub_kv_updated_at ON hub_kv;
CREATE TRIGGER hub_kv_updated_at
    BEFORE UPDATE ON hub_kv
    FOR EACH ROW
    EXECUTE FUNCTION hub_kv_touch_updated_at();
`
