package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/mech/pkg/urdf"
)

type InfoCommand struct {
	URDF string `long:"urdf" default:"robot.urdf" description:"Robot description file"`
}

var (
	infoHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	borderStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (c *InfoCommand) Execute(args []string) error {
	model, err := urdf.ParseFile(c.URDF)
	if err != nil {
		return err
	}

	name := model.Name
	if name == "" {
		name = c.URDF
	}
	fmt.Println(infoHeaderStyle.Render("Robot: " + name))
	fmt.Println()

	joints := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("JOINT", "TYPE", "LOWER", "UPPER", "VELOCITY", "EFFORT")
	for _, j := range model.Joints() {
		lower, upper, velocity, effort := "-", "-", "-", "-"
		if j.Limit != nil {
			lower = fmt.Sprintf("%.3f", j.Limit.Lower)
			upper = fmt.Sprintf("%.3f", j.Limit.Upper)
			velocity = fmt.Sprintf("%.3f", j.Limit.Velocity)
			effort = fmt.Sprintf("%.3f", j.Limit.Effort)
		}
		joints.Row(j.Name, string(j.Type), lower, upper, velocity, effort)
	}
	fmt.Println(joints)
	fmt.Println()

	if len(model.Transmissions) == 0 {
		fmt.Println("No transmissions declared.")
		return nil
	}

	trans := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("TRANSMISSION", "TYPE")
	for _, tc := range model.Transmissions {
		name := tc.Name
		if name == "" {
			name = "(unnamed)"
		}
		trans.Row(name, tc.Type)
	}
	fmt.Println(trans)

	return nil
}
