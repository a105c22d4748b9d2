package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zurustar/stsim/pkg/logger"
	"github.com/zurustar/stsim/pkg/script"
)

// DefaultMaxCycles はサイクル数の上限のデフォルト値
const DefaultMaxCycles = 1000

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	SourcePath   string         // STソースファイルのパス
	Cycles       int            // スキャンサイクル数
	MaxCycles    int            // サイクル数の上限（0は無制限）
	Inputs       map[string]any // 入力変数の値
	ScenarioPath string         // シナリオファイルのパス
	Strict       bool           // 最初の診断で停止する
	ChangesOnly  bool           // 変数が変化したステップだけ表示
	Encoding     string         // ソースファイルのエンコーディング
	LogLevel     string         // ログレベル（debug, info, warn, error）
	LogFile      string         // ログの出力先ファイル（空なら標準エラー）
	ShowHelp     bool           // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "--h": true, "-help": true, "--help": true,
	"-strict": true, "--strict": true,
	"-changes-only": true, "--changes-only": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// 優先順位: コマンドラインフラグ > シナリオファイル > 環境変数 > デフォルト値
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("stsim", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}
	var inputs inputList

	fs.IntVar(&config.Cycles, "cycles", 1, "スキャンサイクル数")
	fs.IntVar(&config.Cycles, "c", 1, "スキャンサイクル数（短縮形）")
	fs.IntVar(&config.MaxCycles, "max-cycles", DefaultMaxCycles, "サイクル数の上限")
	fs.Var(&inputs, "input", "入力変数 name=value")
	fs.Var(&inputs, "i", "入力変数 name=value（短縮形）")
	fs.StringVar(&config.ScenarioPath, "scenario", "", "シナリオファイル（YAML）")
	fs.BoolVar(&config.Strict, "strict", false, "最初の診断で停止")
	fs.BoolVar(&config.ChangesOnly, "changes-only", false, "変化したステップだけ表示")
	fs.StringVar(&config.Encoding, "encoding", script.EncodingAuto, "ソースのエンコーディング")
	fs.StringVar(&config.Encoding, "e", script.EncodingAuto, "ソースのエンコーディング（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.LogFile, "log-file", "", "ログファイル")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}
	if config.ShowHelp {
		return config, nil
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !set["cycles"] && !set["c"] {
		if env := os.Getenv("STSIM_CYCLES"); env != "" {
			n, err := strconv.Atoi(strings.TrimSpace(env))
			if err != nil {
				return nil, fmt.Errorf("invalid STSIM_CYCLES %q: %w", env, err)
			}
			config.Cycles = n
		}
	}
	if !set["strict"] {
		if env := os.Getenv("STSIM_STRICT"); env != "" {
			config.Strict = env == "1" || strings.EqualFold(env, "true")
		}
	}
	if !set["log-level"] && !set["l"] {
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			config.LogLevel = strings.ToLower(env)
		}
	}

	// シナリオファイル（フラグで指定された値が優先）
	config.Inputs = make(map[string]any)
	if config.ScenarioPath != "" {
		sc, err := LoadScenario(config.ScenarioPath)
		if err != nil {
			return nil, err
		}
		for name, v := range sc.Inputs {
			config.Inputs[name] = v
		}
		if sc.Cycles != nil && !set["cycles"] && !set["c"] {
			config.Cycles = *sc.Cycles
		}
		if sc.Strict != nil && !set["strict"] {
			config.Strict = *sc.Strict
		}
	}
	for _, in := range inputs {
		config.Inputs[in.name] = in.value
	}

	// サイクル数の検証
	if config.Cycles < 0 {
		return nil, fmt.Errorf("cycles must be non-negative, got %d", config.Cycles)
	}
	if config.MaxCycles < 0 {
		return nil, fmt.Errorf("max-cycles must be non-negative, got %d", config.MaxCycles)
	}

	// ログレベルの検証
	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 位置引数（STソースファイル）
	switch fs.NArg() {
	case 0:
		return nil, fmt.Errorf("no source file given")
	case 1:
		config.SourcePath = fs.Arg(0)
	default:
		return nil, fmt.Errorf("only one source file can be simulated, got %d", fs.NArg())
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// -c 5 のように次の引数が値の場合は一緒に移動する
			if !strings.Contains(arg, "=") && !boolFlags[arg] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	// "-" で始まるファイル名もフラグと解釈されないよう "--" で区切る
	if len(positional) > 0 {
		flags = append(flags, "--")
	}
	return append(flags, positional...)
}

// input は -i で指定された1つの入力
type input struct {
	name  string
	value string
}

// inputList は -i フラグの値を蓄積する flag.Value
// -i a=1 -i b=2 と -i a=1,b=2 のどちらも受け付ける
type inputList []input

func (l *inputList) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, 0, len(*l))
	for _, in := range *l {
		parts = append(parts, in.name+"="+in.value)
	}
	return strings.Join(parts, ",")
}

func (l *inputList) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			// '=' を含まない部分は直前の値の続き (msg='a,b' など)
			if len(*l) == 0 {
				return fmt.Errorf("invalid input %q: expected name=value", part)
			}
			(*l)[len(*l)-1].value += "," + part
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("invalid input %q: missing variable name", part)
		}
		*l = append(*l, input{name: name, value: strings.TrimSpace(value)})
	}
	return nil
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `stsim - Structured Text scan-cycle simulator

Usage:
  stsim [options] <file.st>

Arguments:
  file.st    FUNCTION_BLOCK / PROGRAM / FUNCTION を1つ含むSTソースファイル

Options:
  -c, --cycles <n>            スキャンサイクル数（デフォルト: 1）
  -i, --input <name=value>    入力変数の値（複数指定可、a=1,b=TRUE 形式も可）
  --scenario <file.yaml>      入力・サイクル数・strict を記述したシナリオファイル
  --strict                    最初の診断でシミュレーションを停止
  --changes-only              変数が変化したステップだけ表示
  --max-cycles <n>            サイクル数の上限（デフォルト: %d、0は無制限）
  -e, --encoding <name>       ソースのエンコーディング: %s（デフォルト: auto）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --log-file <path>           ログをファイルに出力
  -h, --help                  このヘルプを表示

Environment Variables:
  STSIM_CYCLES=<n>            スキャンサイクル数
  STSIM_STRICT=1              strict モードを有効化
  LOG_LEVEL=<level>           ログレベル

Examples:
  stsim motor.st -i start_button=TRUE -i temperature=85.5
  stsim -c 3 counter.st
  stsim --scenario overheat.yaml --changes-only motor.st
`, DefaultMaxCycles, strings.Join(script.SupportedEncodings(), ", "))
}
