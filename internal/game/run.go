package game

import (
	"fmt"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Run opens the window and loops until it is closed.
func (g *Game) Run(width, height int32) {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagWindowResizable)
	rl.InitWindow(width, height, "citysim")
	defer rl.CloseWindow()

	rl.SetTargetFPS(120)
	rl.DisableCursor()

	for !rl.WindowShouldClose() {
		dt := rl.GetFrameTime()
		g.Step(g.readInput(), dt)
		g.Draw(dt)
	}
}

// readInput decodes the keyboard and mouse. The cursor is freed while the
// debug panel is open so its widgets can be used.
func (g *Game) readInput() Input {
	var in Input

	if rl.IsKeyPressed(rl.KeyF1) {
		g.DebugMode = !g.DebugMode
		if g.DebugMode {
			rl.EnableCursor()
		} else {
			rl.DisableCursor()
		}
	}
	in.ToggleMap = rl.IsKeyPressed(rl.KeyTab)
	in.Use = rl.IsKeyPressed(rl.KeyE)

	axis := func(pos, neg int32) float32 {
		var v float32
		if rl.IsKeyDown(pos) {
			v++
		}
		if rl.IsKeyDown(neg) {
			v--
		}
		return v
	}

	if !g.DebugMode {
		mouse := rl.GetMouseDelta()
		in.Player.LookX = mouse.X
		in.Player.LookY = mouse.Y
		in.Shoot = rl.IsMouseButtonPressed(rl.MouseLeftButton)
	}
	in.Player.Forward = axis(rl.KeyW, rl.KeyS)
	in.Player.Right = axis(rl.KeyD, rl.KeyA)
	in.Player.Jump = rl.IsKeyPressed(rl.KeySpace)
	in.Player.Sprint = rl.IsKeyDown(rl.KeyLeftShift)

	if rl.IsKeyDown(rl.KeyW) {
		in.Vehicle.Throttle = 1
	}
	if rl.IsKeyDown(rl.KeyS) || rl.IsKeyDown(rl.KeySpace) {
		in.Vehicle.Brake = 1
	}
	in.Vehicle.Steer = axis(rl.KeyA, rl.KeyD)
	return in
}

func (g *Game) Draw(dt float32) {
	cam := g.Camera(dt)
	aspect := float32(rl.GetScreenWidth()) / float32(max(rl.GetScreenHeight(), 1))

	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(135, 170, 200, 255))

	drawStart := time.Now()
	g.Renderer.Draw(cam, aspect, g.World.Bodies(), g.ColorOf)
	g.drawMs = float64(time.Since(drawStart).Microseconds()) / 1000.0

	g.DrawUI()
	rl.EndDrawing()
}

func (g *Game) DrawUI() {
	switch g.Mode {
	case ModeWalk:
		rl.DrawText("WASD move, Shift sprint, Space jump, LMB throw, E enter car", 10, 10, 20, rl.DarkGray)
		// crosshair
		cx, cy := int32(rl.GetScreenWidth()/2), int32(rl.GetScreenHeight()/2)
		rl.DrawLine(cx-8, cy, cx+8, cy, rl.White)
		rl.DrawLine(cx, cy-8, cx, cy+8, rl.White)
	case ModeDrive:
		v := g.Vehicles[g.driving]
		rl.DrawText("W throttle, S brake/reverse, A/D steer, E leave car", 10, 10, 20, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("%3.0f km/h", v.Speed*3.6), 10, int32(rl.GetScreenHeight())-40, 30, rl.White)
	case ModeMap:
		rl.DrawText("Tab to return", 10, 10, 20, rl.DarkGray)
	}
	rl.DrawText("F1 debug panel, Tab map", 10, 35, 20, rl.DarkGray)
	rl.DrawFPS(10, 60)

	if !g.DebugMode {
		return
	}

	stats := g.World.Stats()
	drawn, culled := g.Renderer.Stats()
	rl.DrawRectangle(5, 80, 330, 300, rl.Fade(rl.Black, 0.6))

	lines := []string{
		fmt.Sprintf("Mode:     %s", g.Mode),
		fmt.Sprintf("Bodies:   %d static, %d dynamic", stats.Statics, stats.Dynamics),
		fmt.Sprintf("Cells:    %d", stats.Cells),
		fmt.Sprintf("Contacts: %d  (crate hits %d)", stats.Collisions, g.Impacts()),
		fmt.Sprintf("Drawn:    %d  culled %d", drawn, culled),
		fmt.Sprintf("Physics:  %.2f ms", float64(stats.LastTick.Microseconds())/1000.0),
		fmt.Sprintf("Update:   %.2f ms", g.updateMs),
		fmt.Sprintf("Draw:     %.2f ms", g.drawMs),
	}
	if p := g.Player.Body; g.Mode == ModeWalk {
		lines = append(lines, fmt.Sprintf("Player:   (%.1f, %.1f, %.1f) grounded=%v", p.Position.X, p.Position.Y, p.Position.Z, p.Grounded))
	}
	for i, line := range lines {
		rl.DrawText(line, 15, int32(90+i*20), 16, rl.Green)
	}

	y := float32(100 + len(lines)*20)
	g.Renderer.Wireframe = gui.CheckBox(rl.Rectangle{X: 15, Y: y, Width: 16, Height: 16}, "Wireframe", g.Renderer.Wireframe)
	g.Renderer.DrawDistance = gui.Slider(rl.Rectangle{X: 110, Y: y + 25, Width: 150, Height: 16}, "Distance",
		fmt.Sprintf("%.0f m", g.Renderer.DrawDistance), g.Renderer.DrawDistance, 50, 600)
	g.TimeScale = gui.Slider(rl.Rectangle{X: 110, Y: y + 50, Width: 150, Height: 16}, "Time",
		fmt.Sprintf("%.2fx", g.TimeScale), g.TimeScale, 0.1, 2)
}
