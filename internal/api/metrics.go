package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// RuntimeStats собирает показатели процесса для эндпоинта статистики:
// аптайм, память Go-рантайма и загрузку CPU. Доменные показатели
// (клиенты чанкового сервера, кеш чанков) REST-сервер добавляет сам.
type RuntimeStats struct {
	startedAt time.Time
	proc      *process.Process
}

// NewRuntimeStats фиксирует момент старта сервера.
func NewRuntimeStats() *RuntimeStats {
	// nil proc допустим: ProcessCPU уйдёт в системный фолбэк.
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &RuntimeStats{startedAt: time.Now(), proc: proc}
}

// Uptime возвращает время работы в человекочитаемом виде.
func (rs *RuntimeStats) Uptime() string {
	up := time.Since(rs.startedAt)

	days := int(up.Hours()) / 24
	hours := int(up.Hours()) % 24
	minutes := int(up.Minutes()) % 60
	seconds := int(up.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// HeapAllocMB возвращает текущий размер кучи в мегабайтах.
// Палитры и битовые массивы чанков живут в куче, поэтому эта цифра
// напрямую отражает объём загруженного мира.
func (rs *RuntimeStats) HeapAllocMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / 1024 / 1024
}

// ProcessCPU возвращает загрузку CPU процессом в процентах.
// Если метрика процесса недоступна, берётся системная.
func (rs *RuntimeStats) ProcessCPU() (float64, error) {
	if rs.proc != nil {
		if pct, err := rs.proc.CPUPercent(); err == nil {
			return pct, nil
		}
	}

	pcts, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(pcts) == 0 {
		return 0, err
	}
	return pcts[0], nil
}

// SystemCPU возвращает общую загрузку CPU системы в процентах.
func (rs *RuntimeStats) SystemCPU() (float64, error) {
	pcts, err := cpu.Percent(time.Second, false)
	if err != nil || len(pcts) == 0 {
		return 0, err
	}
	return pcts[0], nil
}

// MemoryBreakdown возвращает разбивку памяти Go-рантайма для отладки
// потребления при больших загруженных зонах.
func (rs *RuntimeStats) MemoryBreakdown() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"alloc_mb":       float64(m.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(m.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(m.Sys) / 1024 / 1024,
		"heap_alloc_mb":  float64(m.HeapAlloc) / 1024 / 1024,
		"heap_sys_mb":    float64(m.HeapSys) / 1024 / 1024,
		"num_gc":         m.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}
}
