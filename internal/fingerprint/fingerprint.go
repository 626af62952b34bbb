// Package fingerprint 把 AudioFile 映射为策略相关的等价 key。
// 两个文件是重复的，当且仅当它们在当前策略下的 key 相等。
package fingerprint

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/John-Robertt/ADF/internal/domain"
)

// Strategy 是本次扫描使用的等价策略（封闭集合；新增策略时编译器强制穷举处理）。
type Strategy string

const (
	StrategyContent Strategy = "content"
	StrategyName    Strategy = "name"
	StrategySize    Strategy = "size"
)

// ParseStrategy 校验并规范化策略名。
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.TrimSpace(s)) {
	case StrategyContent:
		return StrategyContent, nil
	case StrategyName:
		return StrategyName, nil
	case StrategySize:
		return StrategySize, nil
	case "":
		return "", fmt.Errorf("strategy 不能为空")
	default:
		return "", fmt.Errorf("strategy 只能是 content、name 或 size，实际是 %q", s)
	}
}

// Algo 是 content 策略可选的摘要算法。
// 选择不影响分组正确性，只影响抗碰撞性与速度。
type Algo string

const (
	AlgoMD5    Algo = "md5"
	AlgoSHA1   Algo = "sha1"
	AlgoSHA256 Algo = "sha256"
)

// ParseAlgo 校验并规范化算法名。
func ParseAlgo(s string) (Algo, error) {
	switch Algo(strings.ToLower(strings.TrimSpace(s))) {
	case AlgoMD5:
		return AlgoMD5, nil
	case AlgoSHA1:
		return AlgoSHA1, nil
	case AlgoSHA256:
		return AlgoSHA256, nil
	case "":
		return "", fmt.Errorf("algo 不能为空")
	default:
		return "", fmt.Errorf("algo 只能是 md5、sha1 或 sha256，实际是 %q", s)
	}
}

func newHash(a Algo) (hash.Hash, error) {
	switch a {
	case AlgoMD5:
		return md5.New(), nil
	case AlgoSHA1:
		return sha1.New(), nil
	case AlgoSHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("未知 algo：%q", a)
	}
}

// hashBlockSize 是单次读取的块大小：4 MiB，用于约束内存占用与 syscall 开销。
const hashBlockSize = 4 << 20

// HashFile 以固定大小的块流式读取文件并计算摘要（十六进制小写）。
func HashFile(path string, algo Algo) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashBlockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ContentKey 计算 content 策略的 key：<size>:<hexdigest>。
// 打开/读取失败返回 ok=false——该文件的 fingerprint 不可用，永不与任何文件相等。
func ContentKey(f domain.AudioFile, algo Algo) (key string, ok bool) {
	digest, err := HashFile(f.AbsPath, algo)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(f.Size, 10) + ":" + digest, true
}

// NameKey 计算 name 策略的 key：声明的标题标签；缺失时退回去扩展名的文件基名。
// 该策略是字面比较而非语义比较：两个无标题、基名不同的文件即使内容一致也不相等。
func NameKey(f domain.AudioFile, title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return f.Base
}

// SizeKey 计算 size 策略的 key：原始字节大小（扫描阶段的 stat 结果）。
func SizeKey(f domain.AudioFile) string {
	return strconv.FormatInt(f.Size, 10)
}
