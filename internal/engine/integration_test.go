//go:build integration
// +build integration

package engine

import (
	"context"
	"os"
	"testing"

	"github.com/charmbracelet/log"
)

func TestDockerClient_ListAndInfo(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION") != "1" {
		t.Skip("set RUN_INTEGRATION=1 to run integration tests")
	}
	dockerHost := os.Getenv("DOCKER_HOST")
	if dockerHost == "" {
		t.Skip("set DOCKER_HOST (e.g. unix:///var/run/docker.sock or unix:///Users/<you>/.rd/docker.sock)")
	}

	ctx := context.Background()
	client, err := NewDockerClient(ctx, dockerHost, log.Default())
	if err != nil {
		t.Fatalf("NewDockerClient failed: %v", err)
	}
	defer client.Close()

	sys, err := client.Info(ctx)
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if sys.Version == "" {
		t.Error("engine version not set")
	}

	images, err := client.ListImages(ctx)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	for _, img := range images {
		if img.ID == "" {
			t.Error("image without ID")
		}
		for _, layer := range img.Layers {
			if layer.Size < 0 {
				t.Errorf("image %s has negative layer size", img.ID)
			}
		}
	}

	if _, err := client.ListContainers(ctx); err != nil {
		t.Fatalf("ListContainers failed: %v", err)
	}
	if _, err := client.ListVolumes(ctx); err != nil {
		t.Fatalf("ListVolumes failed: %v", err)
	}
	if _, err := client.ListBuildCache(ctx); err != nil {
		t.Fatalf("ListBuildCache failed: %v", err)
	}
}
