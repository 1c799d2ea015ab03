package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（例如资源缺失但流程可继续）
// - 5xxx：系统错误（需要中断流程）
// - 51xx：导出流程错误，用户可重新触发导出
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000

	ExportRasterizeFailed  = 5101
	ExportLayoutInvalid    = 5102
	ExportBackgroundFailed = 5103
	ExportEmissionFailed   = 5104
)
