package services

import "github.com/lgu-records/recordkeeper/config"

func configForDir(dir string) config.StorageConfig {
	return config.StorageConfig{Backend: "local", LocalDir: dir}
}
