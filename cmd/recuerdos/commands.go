package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/recuerdos-backend/pkg/civildate"
	"github.com/AnshRaj112/recuerdos-backend/pkg/client"
)

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every recuerdo, newest date first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			items, err := c.client().List(ctx, c.user())
			if err != nil {
				return err
			}
			return c.printList(cmd.OutOrStdout(), items)
		},
	}
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one recuerdo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			r, err := c.client().Get(ctx, c.user(), args[0])
			if err != nil {
				return err
			}
			return c.printOne(cmd.OutOrStdout(), r)
		},
	}
}

// recuerdoFlags are shared by create and update.
type recuerdoFlags struct {
	titulo, descripcion, ubicacion, fecha, imagen string
	latitud, longitud                             float64
}

func (f *recuerdoFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.titulo, "titulo", "", "title")
	cmd.Flags().StringVar(&f.descripcion, "descripcion", "", "description")
	cmd.Flags().StringVar(&f.ubicacion, "ubicacion", "", "location")
	cmd.Flags().StringVar(&f.fecha, "fecha", "", "date as YYYY-MM-DD")
	cmd.Flags().StringVar(&f.imagen, "imagen", "", "image URL")
	cmd.Flags().Float64Var(&f.latitud, "latitud", 0, "latitude")
	cmd.Flags().Float64Var(&f.longitud, "longitud", 0, "longitude")
}

// coordinates returns nil pointers for flags that were not given.
func (f *recuerdoFlags) coordinates(cmd *cobra.Command) (lat, lng *float64) {
	if cmd.Flags().Changed("latitud") {
		lat = &f.latitud
	}
	if cmd.Flags().Changed("longitud") {
		lng = &f.longitud
	}
	return lat, lng
}

func parseFechaFlag(raw string) (civildate.Date, error) {
	d, err := civildate.Parse(strings.TrimSpace(raw))
	if err != nil {
		return civildate.Date{}, &client.Error{
			Kind:    client.KindInvalidInput,
			Field:   "fecha",
			Message: "La fecha debe tener el formato AAAA-MM-DD",
			Err:     err,
		}
	}
	return d, nil
}

func (c *cli) createCmd() *cobra.Command {
	var f recuerdoFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a recuerdo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := client.NewRecuerdo{
				Title:       f.titulo,
				Description: f.descripcion,
				Location:    f.ubicacion,
				ImageURL:    f.imagen,
			}
			if strings.TrimSpace(f.fecha) != "" {
				d, err := parseFechaFlag(f.fecha)
				if err != nil {
					return err
				}
				in.Date = d
			}
			in.Latitude, in.Longitude = f.coordinates(cmd)

			ctx, cancel := c.context(cmd)
			defer cancel()
			r, err := c.client().Create(ctx, c.user(), in)
			if err != nil {
				return err
			}
			return c.printOne(cmd.OutOrStdout(), r)
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var f recuerdoFlags
	var clearCoords bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change only the given fields of a recuerdo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			var p client.Patch
			if changed("titulo") {
				p.Title = &f.titulo
			}
			if changed("descripcion") {
				p.Description = &f.descripcion
			}
			if changed("ubicacion") {
				p.Location = &f.ubicacion
			}
			if changed("imagen") {
				p.ImageURL = &f.imagen
			}
			if changed("fecha") {
				d, err := parseFechaFlag(f.fecha)
				if err != nil {
					return err
				}
				p.Date = &d
			}
			p.Latitude, p.Longitude = f.coordinates(cmd)
			p.ClearCoordinates = clearCoords

			ctx, cancel := c.context(cmd)
			defer cancel()
			r, err := c.client().Update(ctx, c.user(), args[0], p)
			if err != nil {
				return err
			}
			return c.printOne(cmd.OutOrStdout(), r)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&clearCoords, "borrar-coordenadas", false, "remove the stored coordinates")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recuerdo permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			if err := c.client().Delete(ctx, c.user(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Recuerdo %s eliminado\n", args[0])
			return nil
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Find recuerdos whose title or location contains term",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			term := strings.Join(args, " ")
			var (
				items []client.Recuerdo
				err   error
			)
			switch field {
			case "":
				items, err = c.client().Search(ctx, c.user(), term)
			case "titulo":
				items, err = c.client().SearchByTitle(ctx, c.user(), term)
			case "ubicacion":
				items, err = c.client().SearchByLocation(ctx, c.user(), term)
			default:
				return fmt.Errorf("--campo debe ser titulo o ubicacion, no %q", field)
			}
			if err != nil {
				return err
			}
			return c.printList(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVar(&field, "campo", "", "search only this field: titulo or ubicacion")
	return cmd
}

func (c *cli) monthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "List the recuerdos dated in the current month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			items, err := c.client().ThisMonth(ctx, c.user())
			if err != nil {
				return err
			}
			return c.printList(cmd.OutOrStdout(), items)
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals, favourite places and entries per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			st, err := c.client().Stats(ctx, c.user())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				return writeJSON(out, st)
			}
			fmt.Fprintf(out, "Total: %d\nEste año: %d\nEste mes: %d\n", st.Total, st.ThisYear, st.ThisMonth)
			if len(st.TopLocations) > 0 {
				fmt.Fprintln(out, "\nUbicaciones favoritas:")
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, l := range st.TopLocations {
					fmt.Fprintf(tw, "  %s\t%d\n", l.Location, l.Count)
				}
				tw.Flush()
			}
			if len(st.MonthlyCounts) > 0 {
				fmt.Fprintln(out, "\nPor mes:")
				for _, m := range st.MonthlyCounts {
					fmt.Fprintf(out, "  %s  %d\n", m.Month, m.Count)
				}
			}
			return nil
		},
	}
}

func (c *cli) printList(w io.Writer, items []client.Recuerdo) error {
	if c.jsonOutput() {
		return writeJSON(w, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "No hay recuerdos")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFECHA\tTITULO\tUBICACION")
	for _, r := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Date, r.Title, r.Location)
	}
	return tw.Flush()
}

func (c *cli) printOne(w io.Writer, r client.Recuerdo) error {
	if c.jsonOutput() {
		return writeJSON(w, r)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", r.ID)
	fmt.Fprintf(tw, "Título\t%s\n", r.Title)
	fmt.Fprintf(tw, "Fecha\t%s\n", r.Date)
	fmt.Fprintf(tw, "Ubicación\t%s\n", r.Location)
	if r.Description != "" {
		fmt.Fprintf(tw, "Descripción\t%s\n", r.Description)
	}
	if r.ImageURL != "" {
		fmt.Fprintf(tw, "Imagen\t%s\n", r.ImageURL)
	}
	if r.HasCoordinates() {
		fmt.Fprintf(tw, "Coordenadas\t%.6f, %.6f\n", *r.Latitude, *r.Longitude)
	}
	return tw.Flush()
}
