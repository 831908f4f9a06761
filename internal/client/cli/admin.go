package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
)

// Categories: categories [list|stats|add|edit <id>|delete <id>]
func (a *App) Categories(ctx context.Context, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "list":
		cats, err := a.svc.Categories.List(ctx)
		if err != nil {
			return err
		}
		tw := newTable(a.out)
		fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCOLOR\tICON")
		for _, c := range cats {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, orDash(c.Color), orDash(c.Icon))
		}
		return tw.Flush()

	case "stats":
		st, err := a.svc.Categories.Stats(ctx)
		if err != nil {
			return err
		}
		tw := newTable(a.out)
		fmt.Fprintln(tw, "NAME\tTYPE\tTRANSACTIONS\tSHARE")
		for _, c := range st.Categories {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f%%\n", c.Name, c.Type, c.TransactionCount, c.Percentage)
		}
		tw.Flush()
		a.printf("%d categories, %d transactions\n", st.Count, st.TotalTransactions)
		return nil

	case "add":
		var in models.CategoryInput
		name, err := a.ask("Name: ")
		if err != nil {
			return err
		}
		typ, err := a.ask("Type (recette/depense/both): ")
		if err != nil {
			return err
		}
		ct := models.CategoryType(typ)
		in.Name, in.Type = &name, &ct
		if in.Color, err = a.optional("Color: "); err != nil {
			return err
		}
		if in.Icon, err = a.optional("Icon: "); err != nil {
			return err
		}
		c, err := a.svc.Categories.Create(ctx, in)
		if err != nil {
			return err
		}
		a.printf("Category %s created\n", c.ID)
		return nil

	case "edit":
		id, err := oneID(args, "categories edit")
		if err != nil {
			return err
		}
		c, err := a.svc.Categories.Get(ctx, id)
		if err != nil {
			return err
		}
		var in models.CategoryInput
		changed := false
		for _, field := range []struct {
			label   string
			current string
			set     func(string)
		}{
			{"Name", c.Name, func(s string) { in.Name = &s }},
			{"Type", string(c.Type), func(s string) { t := models.CategoryType(s); in.Type = &t }},
			{"Color", c.Color, func(s string) { in.Color = &s }},
			{"Icon", c.Icon, func(s string) { in.Icon = &s }},
		} {
			s, ok, err := a.askDefault(field.label, field.current)
			if err != nil {
				return err
			}
			if ok {
				field.set(s)
				changed = true
			}
		}
		if !changed {
			a.printf("Nothing to update\n")
			return nil
		}
		if _, err := a.svc.Categories.Update(ctx, id, in); err != nil {
			return err
		}
		a.printf("Category %s updated\n", id)
		return nil

	case "delete":
		id, err := oneID(args, "categories delete")
		if err != nil {
			return err
		}
		ok, err := a.confirm(fmt.Sprintf("Delete category %s?", id))
		if err != nil || !ok {
			return err
		}
		if err := a.svc.Categories.Delete(ctx, id); err != nil {
			return err
		}
		a.printf("Category %s deleted\n", id)
		return nil
	}
	return usage("categories [list|stats|add|edit <id>|delete <id>]")
}

// Users: users [list|add|edit <id>|delete <id>|passwd <id>|toggle <id>]
func (a *App) Users(ctx context.Context, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "list":
		page, err := a.svc.Users.List(ctx)
		if err != nil {
			return err
		}
		tw := newTable(a.out)
		fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tSTATUS")
		for _, u := range page.Results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, orDash(u.Name), u.Role, u.Status)
		}
		return tw.Flush()

	case "add":
		var in models.UserInput
		var err error
		if in.Email, err = a.ask("Email: "); err != nil {
			return err
		}
		if in.Name, err = a.ask("Name: "); err != nil {
			return err
		}
		role, err := a.ask("Role (admin/user/readonly) [user]: ")
		if err != nil {
			return err
		}
		in.Role = models.RoleUser
		if role != "" {
			in.Role = models.Role(role)
		}
		in.Status = models.StatusActive
		if in.Password, err = GetPassword(a.reader, "Password: ", a.out); err != nil {
			return err
		}
		u, err := a.svc.Users.Create(ctx, in)
		if err != nil {
			return err
		}
		a.printf("User %s created\n", u.ID)
		return nil

	case "edit":
		id, err := oneID(args, "users edit")
		if err != nil {
			return err
		}
		u, err := a.svc.Users.Get(ctx, id)
		if err != nil {
			return err
		}
		var in models.UserInput
		changed := false
		for _, field := range []struct {
			label   string
			current string
			set     func(string)
		}{
			{"Name", u.Name, func(s string) { in.Name = s }},
			{"Role", string(u.Role), func(s string) { in.Role = models.Role(s) }},
		} {
			s, ok, err := a.askDefault(field.label, field.current)
			if err != nil {
				return err
			}
			if ok {
				field.set(s)
				changed = true
			}
		}
		if !changed {
			a.printf("Nothing to update\n")
			return nil
		}
		if _, err := a.svc.Users.Update(ctx, id, in); err != nil {
			return err
		}
		a.printf("User %s updated\n", id)
		return nil

	case "delete":
		id, err := oneID(args, "users delete")
		if err != nil {
			return err
		}
		ok, err := a.confirm(fmt.Sprintf("Delete user %s?", id))
		if err != nil || !ok {
			return err
		}
		if err := a.svc.Users.Delete(ctx, id); err != nil {
			return err
		}
		a.printf("User %s deleted\n", id)
		return nil

	case "passwd":
		id, err := oneID(args, "users passwd")
		if err != nil {
			return err
		}
		pw, err := GetPassword(a.reader, "New password: ", a.out)
		if err != nil {
			return err
		}
		if err := a.svc.Users.ChangePassword(ctx, id, pw); err != nil {
			return err
		}
		a.printf("Password changed\n")
		return nil

	case "toggle":
		id, err := oneID(args, "users toggle")
		if err != nil {
			return err
		}
		st, err := a.svc.Users.ToggleStatus(ctx, id)
		if err != nil {
			return err
		}
		a.printf("User %s is now %s\n", id, st)
		return nil
	}
	return usage("users [list|add|edit <id>|delete <id>|passwd <id>|toggle <id>]")
}
