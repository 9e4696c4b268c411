package cmd

import (
	"strings"
	"testing"
	"time"

	v1 "github.com/example/docksweep/internal/schema/v1"
)

func sampleReport() *v1.Report {
	const mb = int64(1 << 20)
	return &v1.Report{
		SchemaVersion: "1.0",
		Tool:          v1.Tool{Name: "docksweep", Version: "dev"},
		Snapshot: v1.Snapshot{
			Generation: 4,
			TakenAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Engine: v1.Engine{
			Version:         "29.1.3",
			OperatingSystem: "Debian GNU/Linux 13",
			DataRoot:        "/var/lib/docker",
		},
		Totals: v1.Totals{
			TotalBytes:       760 * mb,
			LayersBytes:      550 * mb,
			BuilderBytes:     10 * mb,
			ReclaimableBytes: 150 * mb,
		},
		Images: []v1.Resource{
			{ID: "sha256:imgI", Name: "app:latest", TotalBytes: 500 * mb, SharedBytes: 100 * mb, ReclaimableBytes: 400 * mb, InUse: true},
		},
		Containers: []v1.Resource{
			{ID: "ctrC", Name: "worker", Detail: "sleep inf", TotalBytes: 510 * mb,
				CreatedAt: time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC), InUse: true},
		},
		Volumes: []v1.Resource{
			{ID: "volV", Name: "volV", Detail: "/var/lib/docker/volumes/volV/_data", TotalBytes: 200 * mb},
		},
		BuildCache: []v1.Resource{
			{ID: "cacheK1", Detail: "regular mount / from dockerfile", TotalBytes: 10 * mb},
		},
	}
}

func TestGenerateMarkdown_BasicSections(t *testing.T) {
	out, err := generateMarkdown(sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	for _, needle := range []string{
		"# Docksweep Disk Usage Report",
		"## Totals",
		"## Images (1)",
		"app:latest",
		"## Containers (1)",
		"worker",
		"## Volumes (1)",
		"## Build Cache (1)",
		"500 MiB",
	} {
		if !strings.Contains(out, needle) {
			t.Fatalf("markdown missing %q\n\n%s", needle, out)
		}
	}
}

func TestGenerateHTML_BasicSections(t *testing.T) {
	out, err := generateHTML(sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	for _, needle := range []string{
		"<title>Docksweep Disk Usage Report</title>",
		"app:latest",
		"snapshot #4",
		"500 MiB",
		"/var/lib/docker",
	} {
		if !strings.Contains(out, needle) {
			t.Fatalf("html missing %q\n\n%s", needle, out)
		}
	}
}
