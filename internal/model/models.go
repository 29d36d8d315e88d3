package model

// AllModels 参与 AutoMigrate 的全部模型，按外键依赖排序
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Painting{},
		&ProductLink{},
		&MediaFile{},
		&BlogCategory{},
		&BlogPost{},
		&MuseumRoom{},
		&MuseumArtifact{},
		&HomeSection{},
		&SiteSettings{},
	}
}
