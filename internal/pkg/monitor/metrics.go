/**
 * 主机状态采集
 * @description: 服务模式 /api/v1/status 使用的主机与进程指标快照
 */

package monitor

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"neorecon/internal/pkg/logger"
)

// HostInfo 主机静态信息
type HostInfo struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Platform string `json:"platform"`
	Arch     string `json:"arch"`
	CPUCores int    `json:"cpu_cores"`
	Uptime   uint64 `json:"uptime_seconds"`
}

// SystemMetrics 系统指标 (百分比)
type SystemMetrics struct {
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
	DiskUsage   float64 `json:"disk_usage"`
}

// ProcessMetrics 当前进程指标
type ProcessMetrics struct {
	PID        int32   `json:"pid"`
	Goroutines int     `json:"goroutines"`
	RSS        uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	OpenFiles  int     `json:"open_files"`
}

// Snapshot 一次完整的状态采样
type Snapshot struct {
	Host      HostInfo       `json:"host"`
	System    SystemMetrics  `json:"system"`
	Process   ProcessMetrics `json:"process"`
	Timestamp string         `json:"timestamp"`
}

// Collect 采集状态; 单项失败只记录告警, 对应字段保持零值
func Collect(sample time.Duration) *Snapshot {
	return &Snapshot{
		Host:      GetHostInfo(),
		System:    GetSystemMetrics(sample),
		Process:   GetProcessMetrics(),
		Timestamp: logger.NowFormatted(),
	}
}

// GetSystemMetrics 获取系统指标, sample 为 CPU 采样间隔
func GetSystemMetrics(sample time.Duration) SystemMetrics {
	var metrics SystemMetrics

	cpuPercent, err := cpu.Percent(sample, false)
	if err != nil {
		warn("GetSystemMetrics", "Failed to get CPU usage: "+err.Error())
	} else if len(cpuPercent) > 0 {
		metrics.CPUUsage = cpuPercent[0]
	}

	vMem, err := mem.VirtualMemory()
	if err != nil {
		warn("GetSystemMetrics", "Failed to get Memory usage: "+err.Error())
	} else {
		metrics.MemoryUsage = vMem.UsedPercent
	}

	dUsage, err := disk.Usage("/")
	if err != nil {
		// Windows
		dUsage, err = disk.Usage("C:")
	}
	if err != nil {
		warn("GetSystemMetrics", "Failed to get Disk usage: "+err.Error())
	} else {
		metrics.DiskUsage = dUsage.UsedPercent
	}

	return metrics
}

// GetHostInfo 获取主机静态信息
func GetHostInfo() HostInfo {
	info := HostInfo{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPUCores: runtime.NumCPU(),
	}

	hInfo, err := host.Info()
	if err != nil {
		warn("GetHostInfo", "Failed to get host info: "+err.Error())
		return info
	}
	info.Hostname = hInfo.Hostname
	info.Platform = hInfo.Platform
	info.Uptime = hInfo.Uptime
	if hInfo.KernelArch != "" {
		info.Arch = hInfo.KernelArch
	}
	if cores, err := cpu.Counts(false); err == nil && cores > 0 {
		info.CPUCores = cores
	}
	return info
}

// GetProcessMetrics 获取当前进程指标
func GetProcessMetrics() ProcessMetrics {
	m := ProcessMetrics{
		PID:        int32(os.Getpid()),
		Goroutines: runtime.NumGoroutine(),
	}
	p, err := process.NewProcess(m.PID)
	if err != nil {
		warn("GetProcessMetrics", "Failed to open process: "+err.Error())
		return m
	}
	if memInfo, err := p.MemoryInfo(); err == nil {
		m.RSS = memInfo.RSS
	}
	if pct, err := p.CPUPercent(); err == nil {
		m.CPUPercent = pct
	}
	if files, err := p.OpenFiles(); err == nil {
		m.OpenFiles = len(files)
	}
	return m
}

func warn(event, msg string) {
	logger.LogSystemEvent("Monitor", event, msg, logger.WarnLevel, nil)
}
