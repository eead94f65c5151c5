package crawlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor 系统资源监控器
// 启动Chromium前检查可用内存与CPU负载; serve模式下周期采样并记录压力告警
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 采样函数,测试时替换
	readMemory func() (total, available uint64, err error)
	readCPU    func() (float64, error)

	mu         sync.RWMutex
	lastStatus MemoryStatus
	lastCPU    float64
	cancelFunc context.CancelFunc
	isRunning  bool
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	MinFreeMemory    int64 // 启动浏览器要求的最低可用内存(字节),0为不检查
	CPULoadThreshold int   // CPU负载阈值(%),>=100视为不检查
}

// MemoryStatus 内存状态
type MemoryStatus struct {
	TotalMemory     uint64 // 系统总内存(字节)
	AvailableMemory uint64 // 可用内存(字节)
	MemoryPressure  string // normal / warning / critical
}

// NewResourceMonitor 创建资源监控器
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	return &ResourceMonitor{
		config:     config,
		readMemory: systemMemory,
		readCPU:    systemCPU,
	}
}

func systemMemory() (uint64, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vm.Total, vm.Available, nil
}

func systemCPU() (float64, error) {
	// 100毫秒采样,所有核心取平均
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, fmt.Errorf("CPU使用率数据为空")
	}
	return percentages[0], nil
}

// Sample 立即采样一次
func (rm *ResourceMonitor) Sample() MemoryStatus {
	total, available, err := rm.readMemory()
	if err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败")
	}
	cpuUsage, err := rm.readCPU()
	if err != nil {
		log.Warn().Err(err).Msg("获取CPU使用率失败")
	}

	status := MemoryStatus{
		TotalMemory:     total,
		AvailableMemory: available,
		MemoryPressure:  rm.pressure(available, total),
	}

	rm.mu.Lock()
	rm.lastStatus = status
	rm.lastCPU = cpuUsage
	rm.mu.Unlock()
	return status
}

func (rm *ResourceMonitor) pressure(available, total uint64) string {
	if total == 0 || rm.config.MinFreeMemory <= 0 {
		return "normal"
	}
	floor := uint64(rm.config.MinFreeMemory)
	switch {
	case available < floor:
		return "critical"
	case available < floor*2:
		return "warning"
	default:
		return "normal"
	}
}

// CheckLaunch 判断当前是否适合启动浏览器
// 读取系统信息失败时放行
func (rm *ResourceMonitor) CheckLaunch() (bool, string) {
	status := rm.Sample()

	if rm.config.MinFreeMemory > 0 && status.TotalMemory > 0 &&
		status.AvailableMemory < uint64(rm.config.MinFreeMemory) {
		return false, fmt.Sprintf("可用内存不足(当前%dMB,至少需要%dMB)",
			status.AvailableMemory/(1024*1024), rm.config.MinFreeMemory/(1024*1024))
	}

	if rm.config.CPULoadThreshold > 0 && rm.config.CPULoadThreshold < 100 {
		rm.mu.RLock()
		cpuUsage := rm.lastCPU
		rm.mu.RUnlock()
		if cpuUsage > float64(rm.config.CPULoadThreshold) {
			return false, fmt.Sprintf("CPU负载过高(当前%.1f%%)", cpuUsage)
		}
	}
	return true, ""
}

// GetMemoryStatus 最近一次采样结果
func (rm *ResourceMonitor) GetMemoryStatus() MemoryStatus {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.lastStatus
}

// StartMonitoring 后台周期采样,重复调用无副作用
func (rm *ResourceMonitor) StartMonitoring(interval time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rm.cancelFunc = cancel
	rm.isRunning = true
	go rm.monitoringLoop(ctx, interval)
}

func (rm *ResourceMonitor) monitoringLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := "normal"
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := rm.Sample()
			if status.MemoryPressure == prev {
				continue
			}
			switch status.MemoryPressure {
			case "critical":
				log.Error().Msgf("可用内存严重不足(当前%dMB),浏览器可能崩溃", status.AvailableMemory/(1024*1024))
			case "warning":
				log.Warn().Msgf("可用内存偏低(当前%dMB)", status.AvailableMemory/(1024*1024))
			default:
				log.Info().Msg("内存压力已恢复正常")
			}
			prev = status.MemoryPressure
		}
	}
}

// StopMonitoring 停止后台采样
func (rm *ResourceMonitor) StopMonitoring() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.isRunning && rm.cancelFunc != nil {
		rm.cancelFunc()
		rm.isRunning = false
		rm.cancelFunc = nil
	}
}
