// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/lib/tui"
	"github.com/ticketzako/cppticketer/lib/version"
	"github.com/ticketzako/cppticketer/notify"
	"github.com/ticketzako/cppticketer/stresstest"
)

type menuAction struct {
	title  string
	detail string
	run    func(a *app, ctx context.Context) error
}

func menu() []menuAction {
	return []menuAction{
		{"启动抢票", "检查登录与选择后开始轮询下单", func(a *app, ctx context.Context) error {
			return a.purchase(ctx, runParams{})
		}},
		{"购票信息", "选择购票人", func(a *app, ctx context.Context) error {
			return a.selectBuyers(ctx, nil)
		}},
		{"票务选购", "选择活动、票档与支付方式", func(a *app, ctx context.Context) error {
			return a.selectProduct(ctx, productSelectParams{})
		}},
		{"票务监控", "持续显示余票，Ctrl+C 退出", func(a *app, ctx context.Context) error {
			return a.watchStock(ctx, monitorParams{Interval: -1})
		}},
		{"重新登录", "更换账号或刷新登录状态", func(a *app, ctx context.Context) error {
			return a.loginInteractive(ctx)
		}},
		{"通知配置", "开关通知并选择渠道", (*app).configureNotification},
		{"系统设置", "刷新间隔、冷却时间等", (*app).configureSetting},
		{"压力测试", "测试下单接口的响应", (*app).stressInteractive},
		{"退出", "", nil},
	}
}

// runInteractive is the menu shown when no command is given.
func runInteractive(ctx context.Context, opts appOptions) error {
	return withApp(ctx, opts, func(ctx context.Context, a *app) error {
		if !a.prompt.Interactive() {
			return cli.Validation("no terminal for the interactive menu; run 'cppticketer --help' for the commands")
		}

		renderer := tui.NewRenderer(a.prompt.Out)
		banner := renderer.NewStyle().Bold(true).Foreground(tui.DefaultTheme.Accent)
		fmt.Fprintf(a.prompt.Out, "%s %s\n\n", banner.Render(notify.Title), version.Info())

		if err := a.ensureSession(ctx); err != nil {
			return err
		}
		if err := a.startExternals(ctx); err != nil {
			return err
		}

		actions := menu()
		items := make([]tui.Item, len(actions))
		for index, action := range actions {
			items[index] = tui.Item{Title: action.title, Detail: action.detail}
		}
		for {
			chosen, err := a.pick(ctx, tui.PickerConfig{Title: "请选择操作", Items: items}, "a command")
			if errors.Is(err, tui.ErrCancelled) {
				return nil
			}
			if err != nil {
				return err
			}
			action := actions[chosen[0]]
			if action.run == nil {
				return nil
			}

			err = action.run(a, ctx)
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case err == nil:
			case errors.Is(err, tui.ErrCancelled):
				fmt.Fprintln(a.prompt.Out, "已取消")
			case cli.Silent(err):
			default:
				fmt.Fprintf(a.prompt.Out, "错误：%v\n", err)
			}
			fmt.Fprintln(a.prompt.Out)
		}
	})
}

// startExternals offers to bring up each enabled external channel
// before the menu, so pairing happens once per session.
func (a *app) startExternals(ctx context.Context) error {
	n := a.store.Snapshot().Notification
	if !n.IsEnable || !n.Enabled(config.MethodDGLab) {
		return nil
	}
	start, err := a.prompt.Confirm("是否启动 DG-Lab 通知服务并连接 App？", true)
	if err != nil {
		return promptError(err)
	}
	if !start {
		return nil
	}
	a.dispatcher.InitExternal(ctx)
	a.dispatcher.StartExternal(ctx)
	a.dispatcher.ConnectExternal(ctx)
	return ctx.Err()
}

func (a *app) configureNotification(ctx context.Context) error {
	n := a.store.Snapshot().Notification
	enable, err := a.prompt.Confirm("开启通知？", n.IsEnable)
	if err != nil {
		return promptError(err)
	}
	if !enable {
		if err := a.store.Update(func(c *config.Config) error {
			c.Notification.IsEnable = false
			return nil
		}); err != nil {
			return updateError(err)
		}
		fmt.Fprintln(a.out, "通知已关闭")
		return nil
	}

	methods := notify.Methods()
	items := make([]tui.Item, len(methods))
	var preselected []int
	for index, method := range methods {
		items[index] = tui.Item{Title: method}
		if n.Enabled(method) {
			preselected = append(preselected, index)
		}
	}
	chosen, err := a.pick(ctx, tui.PickerConfig{
		Title:       "选择通知渠道（Tab 选择，Enter 确认）",
		Items:       items,
		Multi:       true,
		Preselected: preselected,
	}, "channels")
	if err != nil {
		return err
	}
	selected := make([]string, len(chosen))
	for index, item := range chosen {
		selected[index] = methods[item]
	}
	if err := a.store.Update(func(c *config.Config) error {
		c.Notification.IsEnable = true
		c.Notification.Methods = selected
		return nil
	}); err != nil {
		return updateError(err)
	}
	fmt.Fprintf(a.out, "通知已开启：%v\n", selected)
	if slices.Contains(selected, config.MethodDGLab) {
		fmt.Fprintln(a.out, "DG-Lab 波形与强度可用 'cppticketer config set notification.dglab.*' 调整")
	}

	test, err := a.prompt.Confirm("发送测试通知？", false)
	if err != nil {
		return promptError(err)
	}
	if test {
		return a.dispatcher.Send(ctx, notify.NewContent(a.store.Snapshot(), "测试通知"))
	}
	return nil
}

func (a *app) configureSetting(context.Context) error {
	setting := a.store.Snapshot().Setting
	nonNegative := func(value int) error {
		if value < 0 {
			return errors.New("不能为负数")
		}
		return nil
	}

	var err error
	if setting.MaxConsecutiveRequest, err = a.prompt.Int("连续请求次数", setting.MaxConsecutiveRequest, func(value int) error {
		if value < 1 {
			return errors.New("至少为 1")
		}
		return nil
	}); err != nil {
		return promptError(err)
	}
	if setting.RefreshInterval, err = a.prompt.Int("刷新间隔（毫秒）", setting.RefreshInterval, nonNegative); err != nil {
		return promptError(err)
	}
	if setting.RiskedInterval, err = a.prompt.Int("风控冷却（毫秒）", setting.RiskedInterval, nonNegative); err != nil {
		return promptError(err)
	}
	if setting.IsDebug, err = a.prompt.Confirm("调试日志", setting.IsDebug); err != nil {
		return promptError(err)
	}
	if setting.IsEncrypt, err = a.prompt.Confirm("加密配置文件", setting.IsEncrypt); err != nil {
		return promptError(err)
	}
	if err := a.store.SetSetting(setting); err != nil {
		return updateError(err)
	}
	printSetting(a, a.store.Snapshot().Setting)
	return nil
}

func (a *app) stressInteractive(ctx context.Context) error {
	positive := func(value int) error {
		if value <= 0 {
			return errors.New("必须为正整数")
		}
		return nil
	}
	requests, err := a.prompt.Int("请求数量", stresstest.DefaultRequests, positive)
	if err != nil {
		return promptError(err)
	}
	concurrency, err := a.prompt.Int("并发数", stresstest.DefaultConcurrency, positive)
	if err != nil {
		return promptError(err)
	}
	return a.stress(ctx, stressParams{Requests: requests, Concurrency: concurrency})
}
