package ch

import (
	"os"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"

	"covidsignal/internal/core/version"
)

// BuildClientInfo names this process in clickhouse's system.query_log. Role
// is the binary's job ("serve", "export"); tag overrides the build version
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	bi := version.Info()
	if strings.TrimSpace(tag) == "" {
		tag = bi.Version
	}
	host, _ := os.Hostname()

	ci := clickhouse.ClientInfo{}
	for _, p := range [][2]string{
		{bi.Service, tag},
		{"role", role},
		{"commit", bi.Commit},
		{"go", bi.Go},
		{"host", host},
	} {
		v := strings.TrimSpace(p[1])
		if v == "" {
			v = "unknown"
		}
		ci.Products = append(ci.Products, struct{ Name, Version string }{p[0], v})
	}
	return ci
}
