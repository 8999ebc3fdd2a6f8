package config

import "os"

type Features struct {
	BillingEnabled       bool
	CatalogWriteEnabled  bool
	ResetUniformResponse bool
}

func LoadFeatures() Features {
	return Features{
		BillingEnabled:       os.Getenv("BILLING_ENABLED") != "false",
		CatalogWriteEnabled:  os.Getenv("CATALOG_WRITE_ENABLED") != "false",
		ResetUniformResponse: os.Getenv("RESET_UNIFORM_RESPONSE") == "true",
	}
}
