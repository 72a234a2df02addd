package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	// Catalog
	&Product{},
	// Verification
	&ScanRecord{},
	&Report{},
}
