package v1

import "time"

type Report struct {
	SchemaVersion string     `json:"schemaVersion"`
	Tool          Tool       `json:"tool"`
	Snapshot      Snapshot   `json:"snapshot"`
	Engine        Engine     `json:"engine"`
	Totals        Totals     `json:"totals"`
	Images        []Resource `json:"images"`
	Containers    []Resource `json:"containers"`
	Volumes       []Resource `json:"volumes"`
	BuildCache    []Resource `json:"buildCache"`
	Extents       []Extent   `json:"extents"`
}

type Tool struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildTime string `json:"buildTime"`
}

type Snapshot struct {
	Generation uint64    `json:"generation"`
	TakenAt    time.Time `json:"takenAt"`
}

type Engine struct {
	Version         string `json:"version"`
	Name            string `json:"name"`
	OperatingSystem string `json:"operatingSystem"`
	KernelVersion   string `json:"kernelVersion"`
	Architecture    string `json:"architecture"`
	DataRoot        string `json:"dataRoot"`
	DiskUsedBytes   uint64 `json:"diskUsedBytes"`
	DiskTotalBytes  uint64 `json:"diskTotalBytes"`
}

type Totals struct {
	TotalBytes       int64 `json:"totalBytes"`
	LayersBytes      int64 `json:"layersBytes"`
	BuilderBytes     int64 `json:"builderBytes"`
	ReclaimableBytes int64 `json:"reclaimableBytes"` // freed if every unused resource went
}

type Resource struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Detail           string    `json:"detail,omitempty"`
	SelfBytes        int64     `json:"selfBytes"`
	TotalBytes       int64     `json:"totalBytes"`
	SharedBytes      int64     `json:"sharedBytes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	InUse            bool      `json:"inUse"`
	ReclaimableBytes int64     `json:"reclaimableBytes"` // standalone removal, current references
}

type Extent struct {
	Digest string   `json:"digest"`
	Bytes  int64    `json:"bytes"`
	Refs   []string `json:"refs"`
}
