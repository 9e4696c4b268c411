package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

// DockerClient implements Client on top of the Docker Engine API.
type DockerClient struct {
	cli *client.Client
	log *log.Logger
}

// NewDockerClient connects to the daemon at host (empty means environment
// configuration / the default socket) and verifies it is reachable.
func NewDockerClient(ctx context.Context, host string, logger *log.Logger) (*DockerClient, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if host == "" {
		opts = append(opts, client.FromEnv)
	} else {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing docker client: %w", err)
	}

	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, mapErr("ping", "", "", err)
	}

	if logger == nil {
		logger = log.Default()
	}
	logger.Debug("docker client initialized", "host", cli.DaemonHost())
	return &DockerClient{cli: cli, log: logger}, nil
}

// Close releases the underlying HTTP client.
func (c *DockerClient) Close() error { return c.cli.Close() }

// mapErr classifies a docker client error into the adapter's taxonomy.
func mapErr(op string, kind Kind, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return err
	case client.IsErrConnectionFailed(err):
		return fmt.Errorf("%w: %s: %v", ErrEngineUnreachable, op, err)
	case errdefs.IsNotFound(err):
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	case errdefs.IsConflict(err):
		return fmt.Errorf("%w: %s %s: %v", ErrInUse, kind, id, err)
	default:
		return &EngineError{Op: op, Kind: kind, ID: id, Err: err}
	}
}

func (c *DockerClient) diskUsage(ctx context.Context, obj types.DiskUsageObject) (types.DiskUsage, error) {
	du, err := c.cli.DiskUsage(ctx, types.DiskUsageOptions{Types: []types.DiskUsageObject{obj}})
	if err != nil {
		return types.DiskUsage{}, mapErr("disk usage", Kind(obj), "", err)
	}
	return du, nil
}

// ListImages returns all images with their layer chains. Layer resolution is
// best-effort: an image whose inspect or history call fails is reported with
// an empty layer list and its full size as self-owned.
func (c *DockerClient) ListImages(ctx context.Context) ([]RawImage, error) {
	du, err := c.diskUsage(ctx, types.ImageObject)
	if err != nil {
		return nil, err
	}

	out := make([]RawImage, len(du.Images))

	// Bounded concurrency: layer resolution needs two extra API calls per
	// image and hosts can carry hundreds of them.
	sem := make(chan struct{}, 8)
	var wg sync.WaitGroup
	for i, img := range du.Images {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, img *image.Summary) {
			defer wg.Done()
			defer func() { <-sem }()

			raw := RawImage{
				ID:         img.ID,
				Tags:       img.RepoTags,
				Created:    time.Unix(img.Created, 0),
				Size:       img.Size,
				SharedSize: img.SharedSize,
				Containers: img.Containers,
				Labels:     img.Labels,
			}
			raw.Layers = c.imageLayers(ctx, img.ID)
			out[i] = raw
		}(i, img)
	}
	wg.Wait()

	// Deterministic ordering for stable snapshots
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *DockerClient) imageLayers(ctx context.Context, id string) []ExtentRef {
	inspect, _, err := c.cli.ImageInspectWithRaw(ctx, id)
	if err != nil {
		c.log.Debug("image inspect failed, treating size as self-owned", "image", id, "err", err)
		return nil
	}
	history, err := c.cli.ImageHistory(ctx, id)
	if err != nil {
		c.log.Debug("image history failed, treating size as self-owned", "image", id, "err", err)
		return nil
	}
	return layerize(inspect.RootFS.Layers, history)
}

// ListContainers returns all containers, running or not, with sizes.
func (c *DockerClient) ListContainers(ctx context.Context) ([]RawContainer, error) {
	du, err := c.diskUsage(ctx, types.ContainerObject)
	if err != nil {
		return nil, err
	}

	out := make([]RawContainer, 0, len(du.Containers))
	for _, ct := range du.Containers {
		name := ""
		if len(ct.Names) > 0 {
			name = strings.TrimPrefix(ct.Names[0], "/")
		}
		var vols []string
		for _, m := range ct.Mounts {
			if m.Type == mount.TypeVolume && m.Name != "" {
				vols = append(vols, m.Name)
			}
		}
		out = append(out, RawContainer{
			ID:         ct.ID,
			Name:       name,
			Command:    ct.Command,
			Image:      ct.Image,
			ImageID:    ct.ImageID,
			State:      ct.State,
			Status:     ct.Status,
			Created:    time.Unix(ct.Created, 0),
			SizeRw:     ct.SizeRw,
			SizeRootFs: ct.SizeRootFs,
			Running:    ct.State == "running",
			Volumes:    vols,
			Labels:     ct.Labels,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListVolumes returns all named volumes with usage data where the engine
// provides it.
func (c *DockerClient) ListVolumes(ctx context.Context) ([]RawVolume, error) {
	du, err := c.diskUsage(ctx, types.VolumeObject)
	if err != nil {
		return nil, err
	}

	out := make([]RawVolume, 0, len(du.Volumes))
	for _, v := range du.Volumes {
		raw := RawVolume{
			Name:       v.Name,
			Mountpoint: v.Mountpoint,
			Labels:     v.Labels,
		}
		if t, err := time.Parse(time.RFC3339, v.CreatedAt); err == nil {
			raw.Created = t
		}
		if v.UsageData != nil {
			raw.Size = v.UsageData.Size
			raw.RefCount = v.UsageData.RefCount
		}
		out = append(out, raw)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListBuildCache returns all build-cache records.
func (c *DockerClient) ListBuildCache(ctx context.Context) ([]RawBuildCache, error) {
	du, err := c.diskUsage(ctx, types.BuildCacheObject)
	if err != nil {
		return nil, err
	}

	out := make([]RawBuildCache, 0, len(du.BuildCache))
	for _, b := range du.BuildCache {
		out = append(out, RawBuildCache{
			ID:          b.ID,
			Parents:     b.Parents,
			Type:        b.Type,
			Description: b.Description,
			InUse:       b.InUse,
			Shared:      b.Shared,
			Size:        b.Size,
			Created:     b.CreatedAt,
			LastUsed:    b.LastUsedAt,
			UsageCount:  b.UsageCount,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Info returns a daemon summary plus, when the storage root is on a locally
// visible filesystem, its disk usage.
func (c *DockerClient) Info(ctx context.Context) (*SystemInfo, error) {
	version, err := c.cli.ServerVersion(ctx)
	if err != nil {
		return nil, mapErr("server version", "", "", err)
	}
	info, err := c.cli.Info(ctx)
	if err != nil {
		return nil, mapErr("info", "", "", err)
	}

	out := &SystemInfo{
		Version:         version.Version,
		Name:            info.Name,
		OperatingSystem: info.OperatingSystem,
		OSType:          info.OSType,
		KernelVersion:   info.KernelVersion,
		Architecture:    info.Architecture,
		Containers:      info.Containers,
		Images:          info.Images,
		RootDir:         info.DockerRootDir,
	}
	if used, total, err := rootFSUsage(info.DockerRootDir); err == nil {
		out.RootFSUsed = used
		out.RootFSTotal = total
	}
	return out, nil
}

// Remove deletes one resource. ErrNotFound means it was already gone and is
// treated as success by callers; ErrInUse means an active reference blocked
// the deletion.
func (c *DockerClient) Remove(ctx context.Context, kind Kind, id string, force bool) error {
	switch kind {
	case KindImage:
		_, err := c.cli.ImageRemove(ctx, id, image.RemoveOptions{Force: force, PruneChildren: true})
		return mapErr("remove", kind, id, err)
	case KindContainer:
		err := c.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: force})
		return mapErr("remove", kind, id, err)
	case KindVolume:
		err := c.cli.VolumeRemove(ctx, id, force)
		return mapErr("remove", kind, id, err)
	case KindBuildCache:
		report, err := c.cli.BuildCachePrune(ctx, types.BuildCachePruneOptions{
			Filters: filters.NewArgs(filters.Arg("id", id)),
		})
		if err != nil {
			return mapErr("remove", kind, id, err)
		}
		if len(report.CachesDeleted) == 0 {
			return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
		}
		return nil
	default:
		return &EngineError{Op: "remove", Kind: kind, ID: id, Err: fmt.Errorf("unknown resource kind")}
	}
}
