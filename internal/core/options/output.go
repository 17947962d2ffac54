package options

// OutputOptions 定义结果输出的通用参数
type OutputOptions struct {
	JSON       bool   // --json 机器可读输出到 stdout
	SaveJSON   bool   // --save-json 在保存目录写入 JSON 报告
	CSV        bool   // --csv
	Excel      bool   // --xlsx
	Dump       bool   // --dump 保存命中响应体
	Export     bool   // --export 下载图片等附件
	ResultsDir string // 结果根目录
	Verbose    bool   // -v, --verbose 显示 NOT-FOUND / ERROR
}

// NeedSaveDir 是否需要创建保存目录
func (o *OutputOptions) NeedSaveDir() bool {
	return o.SaveJSON || o.CSV || o.Excel || o.Dump || o.Export
}

// ApplyToRun 将输出参数应用到运行参数
func (o *OutputOptions) ApplyToRun(run *RunOptions) {
	run.JSON = o.JSON
	run.Verbose = o.Verbose
	run.Dump = o.Dump
	run.DownloadImages = o.Export
}
