// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"github.com/spf13/pflag"

	"github.com/ManuGH/nuvctl/internal/config"
	"github.com/ManuGH/nuvctl/internal/connection"
)

// formFlags binds the connection form to command flags. Flags left unset
// fall back to the configured default connection.
type formFlags struct {
	form connection.Form
}

func (f *formFlags) bind(fs *pflag.FlagSet, full bool) {
	fs.StringVar(&f.form.Scheme, "protocol", "", "origin scheme (http or https)")
	fs.StringVar(&f.form.Host, "domain", "", "receiver host name or IP address")
	fs.StringVar(&f.form.Port, "port", "", "receiver port")
	if !full {
		return
	}
	fs.StringVar(&f.form.ID, "id", "", "stream identifier to select after connecting")
	fs.StringVar(&f.form.User, "user", "", "receiver user name")
	fs.StringVar(&f.form.Password, "password", "", "receiver password")
	fs.StringVar(&f.form.Width, "width", "", "player width in pixels")
	fs.StringVar(&f.form.Height, "height", "", "player height in pixels")
	fs.BoolVar(&f.form.Muted, "mute", false, "start muted")
}

func (f *formFlags) resolve(fs *pflag.FlagSet, defaults config.ConnectionDefaults) connection.Form {
	d := defaults.Form()
	out := f.form
	pick := func(name string, dst *string, def string) {
		if !fs.Changed(name) {
			*dst = def
		}
	}
	pick("protocol", &out.Scheme, d.Scheme)
	pick("domain", &out.Host, d.Host)
	pick("port", &out.Port, d.Port)
	if fs.Lookup("id") == nil {
		return out
	}
	pick("id", &out.ID, d.ID)
	pick("user", &out.User, d.User)
	pick("password", &out.Password, d.Password)
	pick("width", &out.Width, d.Width)
	pick("height", &out.Height, d.Height)
	if !fs.Changed("mute") {
		out.Muted = d.Muted
	}
	return out
}
