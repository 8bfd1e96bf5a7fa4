package repo

// PGSchema creates the postgres result tables. Rows are keyed by run so a run can be
// written again without duplicates
const PGSchema = `
CREATE TABLE IF NOT EXISTS fip_polygon (
	run_id            uuid             NOT NULL,
	polygon_id        text             NOT NULL,
	map_base          text             NOT NULL,
	year              integer          NOT NULL,
	bec               text             NOT NULL,
	region            char(1)          NOT NULL,
	fiz               text             NOT NULL DEFAULT '',
	mode              smallint         NOT NULL,
	percent_available double precision NOT NULL,
	created_at        timestamptz      NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, polygon_id)
);

CREATE TABLE IF NOT EXISTS fip_layer (
	run_id                    uuid             NOT NULL,
	polygon_id                text             NOT NULL,
	layer                     text             NOT NULL,
	age_total                 double precision NOT NULL,
	years_to_breast_height    double precision NOT NULL,
	breast_height_age         double precision NOT NULL,
	height                    double precision NOT NULL,
	site_index                double precision NOT NULL,
	site_genus                text             NOT NULL DEFAULT '',
	primary_genus             text             NOT NULL,
	inventory_type_group      smallint,
	empirical_relationship_id smallint,
	PRIMARY KEY (run_id, polygon_id, layer),
	FOREIGN KEY (run_id, polygon_id) REFERENCES fip_polygon (run_id, polygon_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS fip_species (
	run_id         uuid             NOT NULL,
	polygon_id     text             NOT NULL,
	layer          text             NOT NULL,
	genus          text             NOT NULL,
	percent_genus  double precision NOT NULL,
	fraction_genus double precision NOT NULL,
	volume_group   integer          NOT NULL,
	decay_group    integer          NOT NULL,
	breakage_group integer          NOT NULL,
	PRIMARY KEY (run_id, polygon_id, layer, genus),
	FOREIGN KEY (run_id, polygon_id, layer) REFERENCES fip_layer (run_id, polygon_id, layer) ON DELETE CASCADE
);

-- genus is '' on layer totals
CREATE TABLE IF NOT EXISTS fip_utilization (
	run_id                              uuid             NOT NULL,
	polygon_id                          text             NOT NULL,
	layer                               text             NOT NULL,
	genus                               text             NOT NULL,
	uc                                  smallint         NOT NULL,
	lorey_height                        double precision,
	base_area                           double precision NOT NULL,
	trees_per_hectare                   double precision NOT NULL,
	quad_mean_diameter                  double precision NOT NULL,
	whole_stem_volume                   double precision NOT NULL,
	close_util_volume                   double precision NOT NULL,
	close_util_net_decay                double precision NOT NULL,
	close_util_net_decay_waste          double precision NOT NULL,
	close_util_net_decay_waste_breakage double precision NOT NULL,
	PRIMARY KEY (run_id, polygon_id, layer, genus, uc),
	FOREIGN KEY (run_id, polygon_id, layer) REFERENCES fip_layer (run_id, polygon_id, layer) ON DELETE CASCADE
);
`

// CHSchema creates the clickhouse utilization table
const CHSchema = `
CREATE TABLE IF NOT EXISTS fip_utilization (
	run_id                              UUID,
	polygon_id                          String,
	year                                UInt16,
	bec                                 LowCardinality(String),
	region                              LowCardinality(String),
	layer                               LowCardinality(String),
	genus                               LowCardinality(String),
	uc                                  Int8,
	lorey_height                        Nullable(Float64),
	base_area                           Float64,
	trees_per_hectare                   Float64,
	quad_mean_diameter                  Float64,
	whole_stem_volume                   Float64,
	close_util_volume                   Float64,
	close_util_net_decay                Float64,
	close_util_net_decay_waste          Float64,
	close_util_net_decay_waste_breakage Float64,
	written_at                          DateTime DEFAULT now()
)
ENGINE = ReplacingMergeTree(written_at)
ORDER BY (run_id, polygon_id, layer, genus, uc)
`
