// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/ticketzako/cppticketer/cmd/cppticketer/cli"
	"github.com/ticketzako/cppticketer/lib/config"
	"github.com/ticketzako/cppticketer/lib/privacy"
)

func configCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Inspect or edit the config file",
		Description: `The config file is <data-dir>/config/config.yaml. When setting.isEncrypt
is on, the file is sealed under a key derived from this machine and
cannot be edited by hand; use these commands instead.`,
		Subcommands: []*cli.Command{
			configShowCommand(opts),
			configPathCommand(opts),
			configSetCommand(opts),
			configResetCommand(opts),
		},
	}
}

type configShowParams struct {
	Reveal bool `flag:"reveal" desc:"print passwords, tokens and identity numbers unmasked"`
}

func configShowCommand(opts appOptions) *cli.Command {
	var params configShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Print the decrypted config as YAML",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("show", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				var (
					data []byte
					err  error
				)
				if params.Reveal {
					data, err = a.store.Marshal()
				} else {
					document := a.store.Snapshot()
					maskConfig(document)
					data, err = yaml.Marshal(document)
				}
				if err != nil {
					return cli.Internal("encoding config: %w", err)
				}
				// The digest covers the unmasked document, so two
				// machines can compare configs without revealing them.
				digest, err := a.store.Digest()
				if err != nil {
					return cli.Internal("hashing config: %w", err)
				}
				if _, err := a.out.Write(data); err != nil {
					return err
				}
				_, err = fmt.Fprintf(a.out, "# blake3: %s\n", digest)
				return err
			})
		},
	}
}

// maskConfig hides credentials and personal data in place.
func maskConfig(c *config.Config) {
	if c.Account.Password != "" {
		c.Account.Password = "****"
	}
	if c.Account.Token != nil {
		masked := privacy.MaskToken(*c.Account.Token)
		c.Account.Token = &masked
	}
	for index := range c.Buyer.Buyer {
		buyer := &c.Buyer.Buyer[index]
		buyer.RealName = privacy.MaskName(buyer.RealName)
		buyer.IDCard = privacy.MaskIDCard(buyer.IDCard)
		buyer.Mobile = privacy.MaskPhone(buyer.Mobile)
	}

	n := &c.Notification
	for _, secret := range []*string{
		&n.PushPlus.Token, &n.Bark.Token, &n.Gotify.Token, &n.Email.SMTPPass,
		&n.Telegram.BotToken, &n.PushDeer.PushKey, &n.Slack.TokenA, &n.Slack.TokenB,
		&n.Slack.TokenC, &n.Slack.OAuthToken, &n.ServerChan.Token, &n.DingTalk.Token,
		&n.WeComBot.BotKey, &n.PushMe.Token,
	} {
		if *secret != "" {
			*secret = privacy.MaskToken(*secret)
		}
	}
}

func configPathCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "path",
		Summary: "Print the config and journal file locations",
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			dataDir, err := config.ResolveDataDir(opts.DataDir)
			if err != nil {
				return cli.Internal("resolving data directory: %w", err)
			}
			out := opts.Stdout
			if out == nil {
				out = os.Stdout
			}
			fmt.Fprintf(out, "config:  %s\njournal: %s\n", config.PathFor(dataDir), journalPathFor(dataDir))
			return nil
		},
	}
}

func configSetCommand(opts appOptions) *cli.Command {
	return &cli.Command{
		Name:    "set",
		Summary: "Set one value by its YAML path",
		Description: `Set a single value addressed by its dotted YAML key path. Lists take a
comma-separated value. The change is validated before it is saved.`,
		Usage: "cppticketer config set KEY.PATH VALUE",
		Examples: []cli.Example{
			{Description: "Store a Bark token", Command: "cppticketer config set notification.bark.token abcdef"},
			{Description: "Pulse on channel B", Command: "cppticketer config set notification.dglab.channel B"},
			{Description: "Two DG-Lab pulses", Command: "cppticketer config set notification.dglab.pulses 呼吸,潮汐"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return cli.Validation("usage: cppticketer config set KEY.PATH VALUE")
			}
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				next, err := setPath(a.store.Snapshot(), args[0], args[1])
				if err != nil {
					return err
				}
				if err := a.store.Update(func(c *config.Config) error {
					*c = *next
					return nil
				}); err != nil {
					return updateError(err)
				}
				a.logger.Info("config value set", "key", args[0])
				fmt.Fprintf(a.out, "%s 已更新\n", args[0])
				return nil
			})
		},
	}
}

// setPath returns a copy of c with the value at the dotted key path
// replaced. The value is decoded with the field's own type.
func setPath(c *config.Config, path, value string) (*config.Config, error) {
	var root yaml.Node
	if err := root.Encode(c); err != nil {
		return nil, cli.Internal("encoding config: %w", err)
	}

	node := &root
	keys := strings.Split(path, ".")
	for depth, key := range keys {
		if node.Kind != yaml.MappingNode {
			return nil, cli.Validation("%s is not a section", strings.Join(keys[:depth], "."))
		}
		var child *yaml.Node
		for index := 0; index+1 < len(node.Content); index += 2 {
			if node.Content[index].Value == key {
				child = node.Content[index+1]
				break
			}
		}
		if child == nil {
			return nil, cli.NotFound("no config key %q", strings.Join(keys[:depth+1], "."))
		}
		node = child
	}

	switch node.Kind {
	case yaml.ScalarNode:
		setScalar(node, value)
	case yaml.SequenceNode:
		if value == "" {
			node.Content = nil
			break
		}
		itemTag := "!!str"
		if len(node.Content) > 0 {
			itemTag = node.Content[0].Tag
		}
		parts := strings.Split(value, ",")
		node.Content = make([]*yaml.Node, len(parts))
		for index, part := range parts {
			item := &yaml.Node{Kind: yaml.ScalarNode, Tag: itemTag}
			setScalar(item, strings.TrimSpace(part))
			node.Content[index] = item
		}
		node.Style = 0
	default:
		return nil, cli.Validation("%s is a section; set one of its keys", path)
	}

	next := config.Default()
	if err := root.Decode(next); err != nil {
		return nil, cli.Validation("%s: %v", path, err)
	}
	return next, nil
}

// setScalar replaces a scalar's value. String fields stay strings so
// "true" or "123" survive; other fields resolve from the text.
func setScalar(node *yaml.Node, value string) {
	if node.Tag == "!!str" {
		node.Style = yaml.DoubleQuotedStyle
	} else {
		node.Tag = ""
		node.Style = 0
	}
	node.Value = value
}

type configResetParams struct {
	Yes bool `flag:"yes,y" desc:"reset without asking for confirmation"`
}

func configResetCommand(opts appOptions) *cli.Command {
	var params configResetParams

	return &cli.Command{
		Name:    "reset",
		Summary: "Move the config aside and start from defaults",
		Description: `Rename the config file to config.yaml.bak and write a fresh default
config. This is the way out of a file that no longer loads, for
example one sealed on another machine. The file is not read first.`,
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("reset", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			resetOpts := opts
			resetOpts.skipLoad = true
			return withApp(ctx, resetOpts, func(ctx context.Context, a *app) error {
				if !params.Yes {
					if !a.prompt.Interactive() {
						return cli.Validation("pass --yes to reset without a terminal")
					}
					confirmed, err := a.prompt.Confirm("重置配置文件？当前文件将被重命名为 .bak", false)
					if err != nil {
						return promptError(err)
					}
					if !confirmed {
						fmt.Fprintln(a.prompt.Out, "已取消")
						return nil
					}
				}
				backup, err := a.store.Reset()
				if err != nil {
					return err
				}
				if backup != "" {
					fmt.Fprintf(a.out, "原配置已备份到 %s\n", backup)
				}
				fmt.Fprintf(a.out, "已写入默认配置 %s\n", a.store.Path())
				return nil
			})
		},
	}
}
