// Package app はシミュレータのコマンドライン処理の流れをまとめる
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zurustar/stsim/pkg/cli"
	"github.com/zurustar/stsim/pkg/compiler"
	"github.com/zurustar/stsim/pkg/logger"
	"github.com/zurustar/stsim/pkg/report"
	"github.com/zurustar/stsim/pkg/vm"
)

// ErrSimulationFailed はシミュレーションが完走しなかったことを示す
var ErrSimulationFailed = errors.New("simulation failed")

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	stdout io.Writer
	stderr io.Writer

	config  *cli.Config
	log     *slog.Logger
	logFile *os.File
}

// New Applicationを作成
// トレース表は stdout に、ログは stderr (または --log-file) に書く
func New(stdout, stderr io.Writer) *Application {
	return &Application{
		stdout: stdout,
		stderr: stderr,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "source", config.SourcePath, "cycles", config.Cycles)

	// 3. ソースの読み込みとコンパイル
	unit, err := app.compile()
	if err != nil {
		return err
	}

	// 4. スキャンサイクルの実行
	policy := vm.PolicyLenient
	if config.Strict {
		policy = vm.PolicyStrict
	}
	machine := vm.New(unit.Program,
		vm.WithOpCodes(unit.OpCodes),
		vm.WithLogger(app.log),
		vm.WithPolicy(policy),
		vm.WithMaxCycles(config.MaxCycles),
		vm.WithFileName(unit.FileName),
	)
	result := machine.Run(config.Inputs, config.Cycles)

	// 5. 結果の表示
	if err := report.Write(app.stdout, unit.Program, result, report.Options{ChangesOnly: config.ChangesOnly}); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("%w: %s", ErrSimulationFailed, result.ErrorMessage)
	}

	app.log.Info("Application terminated normally")
	return nil
}

// Close ログファイルを閉じる
func (app *Application) Close() error {
	if app.logFile == nil {
		return nil
	}
	err := app.logFile.Close()
	app.logFile = nil
	return err
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	w := app.stderr
	if app.config.LogFile != "" {
		f, err := os.OpenFile(app.config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		app.logFile = f
		w = f
	}

	if err := logger.InitLoggerWithWriter(app.config.LogLevel, w); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// compile ソースファイルを読み込んでコンパイルする
// 宣言の警告や不正な文はシミュレーションを止めないのでログに残すだけ
func (app *Application) compile() (*compiler.Unit, error) {
	unit, errs := compiler.CompileFile(app.config.SourcePath, app.config.Encoding)
	if unit == nil {
		return nil, fmt.Errorf("failed to compile: %w", errors.Join(errs...))
	}

	for _, err := range errs {
		if ce, ok := compiler.IsCompileError(err); ok {
			app.log.Warn("Compile diagnostic", "file", unit.FileName, "phase", ce.Phase, "line", ce.Line, "message", ce.Message)
			app.log.Debug("Compile diagnostic context", "context", ce.Context)
			continue
		}
		app.log.Warn("Compile diagnostic", "file", unit.FileName, "error", err)
	}

	app.log.Info("Source compiled",
		"file", unit.FileName,
		"unit", unit.Program.Unit,
		"name", unit.Program.Name,
		"variables", len(unit.Program.Variables()),
		"statements", len(unit.OpCodes))
	return unit, nil
}
