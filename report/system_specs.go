package report

// SystemSpecs is a one-shot snapshot of the host the benchmarks ran on. Memory figures are bytes, uptime and boot
// time are seconds.
type SystemSpecs struct {
	GlobalCPUUsage    float64     `json:"-"`
	CPUs              []CPU       `json:"cpus"`
	PhysicalCoreCount int64       `json:"physical_core_count"`
	TotalMemory       int64       `json:"total_memory"`
	FreeMemory        int64       `json:"free_memory"`
	AvailableMemory   int64       `json:"available_memory"`
	UsedMemory        int64       `json:"used_memory"`
	TotalSwap         int64       `json:"total_swap"`
	FreeSwap          int64       `json:"free_swap"`
	UsedSwap          int64       `json:"used_swap"`
	Uptime            int64       `json:"uptime"`
	BootTime          int64       `json:"boot_time"`
	LoadAverage       LoadAverage `json:"load_average"`
	Name              string      `json:"name"`
	KernelVersion     string      `json:"kernel_version"`
	OSVersion         string      `json:"os_version"`
	LongOSVersion     string      `json:"long_os_version"`
	DistributionID    string      `json:"distribution_id"`
	HostName          string      `json:"host_name"`
}

type CPU struct {
	CPUUsage  float64 `json:"-"`
	Name      string  `json:"name"`
	VendorID  string  `json:"vendor_id"`
	Brand     string  `json:"brand"`
	Frequency int64   `json:"frequency"` // MHz
}

type LoadAverage struct {
	One     float64 `json:"one"`
	Five    float64 `json:"five"`
	Fifteen float64 `json:"fifteen"`
}
