package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型，携带错误代码（Code）和模块（Module）
//   - "没有结果" 永远不是错误：各层以空列表表达空结果
//   - 训练数据不足、实体不在模型中等情况是可回退的非致命错误，
//     调用方通过 IsXXX 检查后切换到其他策略，不对用户暴露
type DomainError struct {
	Code    string // 错误代码（如 "INSUFFICIENT_DATA", "UNKNOWN_ENTITY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "recall", "als"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError 获取 DomainError，如果不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound         = "NOT_FOUND"          // 资源不存在
	ErrorCodeInsufficientData = "INSUFFICIENT_DATA"  // 训练正样本不足，非致命，稍后重试
	ErrorCodeUnknownEntity    = "UNKNOWN_ENTITY"     // 用户/物品不在当前模型或索引中
	ErrorCodeUnavailable      = "UNAVAILABLE"        // 上游协作方不可达
	ErrorCodeInvalidInput     = "INVALID_INPUT"      // 边界校验失败（非法交互类型、评分越界等）
	ErrorCodeNotSupported     = "NOT_SUPPORTED"      // 操作不支持
	ErrorCodeInternalError    = "INTERNAL_ERROR"     // 内部错误
)

// 模块名称常量
const (
	ModuleStore  = "store"  // 存储模块
	ModuleRecall = "recall" // 召回策略模块
	ModuleALS    = "als"    // 矩阵分解模块
	ModuleEngine = "engine" // 混合引擎模块
	ModuleVector = "vector" // 向量模块
)

func codeIs(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND。
func IsNotFound(err error) bool { return codeIs(err, ErrorCodeNotFound) }

// IsInsufficientData 检查错误是否为训练数据不足。
func IsInsufficientData(err error) bool { return codeIs(err, ErrorCodeInsufficientData) }

// IsUnknownEntity 检查错误是否为实体不在模型/索引中。
func IsUnknownEntity(err error) bool { return codeIs(err, ErrorCodeUnknownEntity) }

// IsUnavailable 检查错误是否为上游不可达。
func IsUnavailable(err error) bool { return codeIs(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为边界校验失败。
func IsInvalidInput(err error) bool { return codeIs(err, ErrorCodeInvalidInput) }

// IsNotSupported 检查错误是否为操作不支持。
func IsNotSupported(err error) bool { return codeIs(err, ErrorCodeNotSupported) }
