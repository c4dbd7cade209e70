package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS datasets (
    location             TEXT PRIMARY KEY,
    kind                 TEXT NOT NULL,
    remote               INTEGER NOT NULL DEFAULT 0,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    rows                 INTEGER NOT NULL,
    skipped              INTEGER NOT NULL DEFAULT 0,
    fetched_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rentals (
    location             TEXT NOT NULL REFERENCES datasets(location) ON DELETE CASCADE,
    row_num              INTEGER NOT NULL,
    rental_id            INTEGER NOT NULL,
    car_id               INTEGER NOT NULL,
    checkin_type         TEXT NOT NULL,
    state                TEXT NOT NULL,
    delay_at_checkout    REAL,
    previous_rental_id   INTEGER,
    time_delta           REAL,
    checkout             TEXT NOT NULL DEFAULT '',
    next_rental          INTEGER NOT NULL DEFAULT 0,
    delay_cleaned        REAL,
    PRIMARY KEY (location, row_num)
);

CREATE TABLE IF NOT EXISTS listings (
    location             TEXT NOT NULL REFERENCES datasets(location) ON DELETE CASCADE,
    row_num              INTEGER NOT NULL,
    model_key            TEXT NOT NULL,
    mileage              REAL,
    engine_power         REAL,
    fuel                 TEXT,
    paint_color          TEXT,
    car_type             TEXT,
    private_parking      INTEGER NOT NULL DEFAULT 0,
    has_gps              INTEGER NOT NULL DEFAULT 0,
    has_air_conditioning INTEGER NOT NULL DEFAULT 0,
    automatic_car        INTEGER NOT NULL DEFAULT 0,
    has_connect          INTEGER NOT NULL DEFAULT 0,
    has_speed_regulator  INTEGER NOT NULL DEFAULT 0,
    winter_tires         INTEGER NOT NULL DEFAULT 0,
    rental_price_per_day REAL NOT NULL,
    PRIMARY KEY (location, row_num)
);

CREATE INDEX IF NOT EXISTS idx_rentals_checkin ON rentals(location, checkin_type);
CREATE INDEX IF NOT EXISTS idx_listings_model ON listings(location, model_key);
`
