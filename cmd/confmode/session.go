package main

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"golang.org/x/term"

	"github.com/confmode/confmode/pkg/configtree"
	"github.com/confmode/confmode/pkg/confmode"
	"github.com/confmode/confmode/pkg/frr"
	"github.com/confmode/confmode/pkg/runner"
	"github.com/confmode/confmode/pkg/util"
)

// session holds the stores and connections of one script run.
type session struct {
	env       *confmode.Env
	proposed  *configtree.Tree
	effective configtree.Store // nil when there is nowhere to save

	closers []func() error
}

// openSession loads both trees and builds the script environment from the
// global flags.
func openSession(ctx context.Context) (*session, error) {
	s := &session{}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	var ssh *runner.SSH
	if frrHost != "" {
		pass, err := sshPassword()
		if err != nil {
			return nil, err
		}
		ssh, err = runner.NewSSH(frrHost, frrUser, pass)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, ssh.Close)
	}

	proposed, effective, err := s.openStores(ctx, ssh)
	if err != nil {
		return nil, err
	}
	s.effective = effective

	s.proposed, err = proposed.Load(ctx)
	if err != nil {
		return nil, err
	}
	effTree := configtree.New()
	if effective != nil {
		if effTree, err = effective.Load(ctx); err != nil {
			return nil, err
		}
	}

	env := confmode.NewEnv(configtree.NewConfig(s.proposed, effTree))
	env.Execute = executeMode
	if ssh != nil {
		env.FRR = frr.NewVtyshBackend(ssh)
	}
	if executeMode {
		owner, err := util.LookupOwner("root")
		if err != nil {
			util.Warnf("files will keep the current owner: %v", err)
		} else {
			env.Owner = owner
		}
	}
	s.env = env

	ok = true
	return s, nil
}

// openStores returns the proposed and effective stores. With both --redis
// and --host, Redis is reached through an SSH tunnel to the host.
func (s *session) openStores(ctx context.Context, ssh *runner.SSH) (configtree.Store, configtree.Store, error) {
	if redisAddr != "" {
		addr := redisAddr
		if ssh != nil {
			tunnel, err := ssh.Forward(redisAddr)
			if err != nil {
				return nil, nil, fmt.Errorf("tunneling to redis %s: %w", redisAddr, err)
			}
			s.closers = append(s.closers, tunnel.Close)
			addr = tunnel.LocalAddr()
		}
		proposed := configtree.NewRedisStore(addr, redisDB, table)
		effective := configtree.NewRedisStore(addr, redisDB, runningTable)
		s.closers = append(s.closers, proposed.Close, effective.Close)
		if err := proposed.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("connecting to redis %s: %w", redisAddr, err)
		}
		return proposed, effective, nil
	}

	if configFile == "" {
		return nil, nil, fmt.Errorf("no configuration: use -c <file> or --redis <addr>")
	}
	proposed := configtree.NewFileStore(configFile, false)
	if effectiveFile == "" {
		return proposed, nil, nil
	}
	return proposed, configtree.NewFileStore(effectiveFile, true), nil
}

// save stores the proposed subtree at base as effective.
func (s *session) save(ctx context.Context, base []string) error {
	if s.effective == nil {
		return fmt.Errorf("--save needs an effective configuration: use -e <file> or --redis")
	}
	if err := s.effective.SaveSubtree(ctx, s.proposed, base...); err != nil {
		return fmt.Errorf("saving effective configuration: %w", err)
	}
	return nil
}

// Close releases connections in reverse order of opening.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			util.Debugf("close: %v", err)
		}
	}
	s.closers = nil
}

func sshPassword() (string, error) {
	if frrPassword != "" {
		return frrPassword, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--password is required for --host when stdin is not a terminal")
	}
	fmt.Fprintf(os.Stderr, "%s@%s password: ", frrUser, frrHost)
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pass), nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
