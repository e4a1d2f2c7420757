// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"fmt"
	"strings"

	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/purchase"
	"github.com/ticketzako/cppticketer/service"
)

// Title is the title of every notification.
const Title = "Cpp Ticketer"

// Content is one notification.
type Content struct {
	Title string
	Body  string
}

// Text is Title and Body on separate lines, for channels with a
// single text field.
func (c Content) Text() string {
	return c.Title + "\n" + c.Body
}

// NewContent describes the account and selection in c. A non-empty
// result adds a final 结果 line.
func NewContent(c *config.Config, result string) Content {
	var tier []string
	for _, part := range []string{c.Product.TicketMain.Name, c.Product.TicketType.Square, c.Product.TicketType.Name} {
		if part != "" {
			tier = append(tier, part)
		}
	}
	lines := []string{
		"账号：" + c.Account.Account,
		"购票人：" + strings.Join(c.Buyer.Names(), ","),
		"票档：" + strings.Join(tier, " "),
		fmt.Sprintf("数量：%d", c.Buyer.Count),
	}
	if result != "" {
		lines = append(lines, "结果："+result)
	}
	return Content{Title: Title, Body: strings.Join(lines, "\n")}
}

// ResultText summarizes how a purchase run ended.
func ResultText(outcome purchase.Outcome) string {
	switch outcome.State {
	case purchase.Succeeded:
		if outcome.Result.OutTradeNo != "" {
			return "下单成功，订单号 " + outcome.Result.OutTradeNo
		}
		return "下单成功"
	case purchase.Failed:
		if outcome.Result.Category == service.CategoryDuplicate {
			return "下单失败，购票人已持有门票：" + outcome.Result.Message
		}
		return "下单失败：" + outcome.Result.Message
	default:
		return outcome.State.String()
	}
}
