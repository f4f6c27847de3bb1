package models

type Config struct {
	Debug bool `yaml:"debug" envconfig:"METADATA_DEBUG"`

	Api struct {
		Url              string `yaml:"url"`
		Port             string `yaml:"port" envconfig:"METADATA_API_INTERNAL_PORT"`
		RequestTimeoutMs int    `yaml:"requestTimeoutMs" envconfig:"METADATA_API_REQUEST_TIMEOUT_MS" default:"30000"`
	} `yaml:"api"`

	Registry struct {
		DbPath              string `yaml:"dbPath" envconfig:"METADATA_REGISTRY_DB_PATH" default:"./data/metadata.db"`
		VcfDirPath          string `yaml:"vcfDirPath" envconfig:"METADATA_REGISTRY_VCF_PATH"`
		GtfPath             string `yaml:"gtfPath" envconfig:"METADATA_REGISTRY_GTF_PATH"`
		FileHandleCacheSize int    `yaml:"fileHandleCacheSize" envconfig:"METADATA_REGISTRY_FILE_HANDLE_CACHE_SIZE" default:"32"`
	} `yaml:"registry"`

	Privacy struct {
		// DpEpsilon <= 0 disables perturbation (an epsilon of +inf)
		DpEpsilon       float64            `yaml:"dpEpsilon" envconfig:"METADATA_DP_EPSILON" default:"0"`
		DatasetEpsilons map[string]float64 `yaml:"datasetEpsilons" envconfig:"METADATA_DP_DATASET_EPSILONS"`
		Seed            int64              `yaml:"seed" envconfig:"METADATA_DP_SEED" default:"0"`
	} `yaml:"privacy"`

	AuthX struct {
		IsAuthorizationEnabled bool   `yaml:"enabled" envconfig:"METADATA_AUTHZ_ENABLED"`
		AccessMapHeader        string `yaml:"accessMapHeader" envconfig:"METADATA_AUTHZ_ACCESS_MAP_HEADER" default:"X-CanDIG-Authorization"`
		DefaultAccessTier      int    `yaml:"defaultAccessTier" envconfig:"METADATA_AUTHZ_DEFAULT_TIER" default:"4"`
	} `yaml:"authx"`

	Federation struct {
		PeersCommaSep    string `yaml:"peers" envconfig:"METADATA_FEDERATION_PEERS"`
		RequestTimeoutMs int    `yaml:"requestTimeoutMs" envconfig:"METADATA_FEDERATION_REQUEST_TIMEOUT_MS" default:"10000"`
		MaxRetries       uint64 `yaml:"maxRetries" envconfig:"METADATA_FEDERATION_MAX_RETRIES" default:"3"`
	} `yaml:"federation"`
}
