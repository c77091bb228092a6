package feeder

import (
	"os"

	"git.fiblab.net/general/common/v2/geometry"
	geov2 "git.fiblab.net/sim/protos/v2/go/city/geo/v2"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"git.fiblab.net/sim/routing/v2/router"
	"github.com/samber/lo"
	"gopkg.in/yaml.v2"

	"git.fiblab.net/sim/tldetector/entity"
	"git.fiblab.net/sim/tldetector/utils/config"
)

// 观测列表中灯头位置的离地高度
const headHeight = 5.

// stopLine 路径沿途的一条停止线
type stopLine struct {
	junctionID int32
	s          float64        // 停止线在路径上的里程
	point      geometry.Point // 停止线位置，取进入路口的车道末端
	head       *signalHead
}

// scenario 预计算的行驶场景
// 功能：保存拼接后的行驶路径、采样路径点与沿途信号灯停止线
// 说明：构建完成后路径与路径点不再变化，只有信号灯相位随时间推进
type scenario struct {
	path      *polyline
	waypoints []entity.Waypoint
	stops     []*stopLine
}

// mapIndex 地图元素索引
type mapIndex struct {
	lanes              map[int32]*mapv2.Lane
	roads              map[int32]*mapv2.Road
	junctions          map[int32]*mapv2.Junction
	laneParentJunction map[int32]*mapv2.Junction // 车道ID到所属路口
}

func newMapIndex(m *mapv2.Map) *mapIndex {
	idx := &mapIndex{
		lanes:              make(map[int32]*mapv2.Lane),
		roads:              make(map[int32]*mapv2.Road),
		junctions:          make(map[int32]*mapv2.Junction),
		laneParentJunction: make(map[int32]*mapv2.Junction),
	}
	for _, l := range m.Lanes {
		idx.lanes[l.Id] = l
	}
	for _, r := range m.Roads {
		idx.roads[r.Id] = r
	}
	for _, j := range m.Junctions {
		idx.junctions[j.Id] = j
		for _, laneID := range j.LaneIds {
			idx.laneParentJunction[laneID] = j
		}
	}
	return idx
}

func (idx *mapIndex) lane(id int32) *mapv2.Lane {
	l, ok := idx.lanes[id]
	if !ok {
		log.Panicf("no lane %d in map", id)
	}
	return l
}

func (idx *mapIndex) road(id int32) *mapv2.Road {
	r, ok := idx.roads[id]
	if !ok {
		log.Panicf("no road %d in map", id)
	}
	return r
}

// rightestDrivingLane 道路最右侧的行车道（最靠近路边）
func (idx *mapIndex) rightestDrivingLane(road *mapv2.Road) *mapv2.Lane {
	var last *mapv2.Lane
	for _, laneID := range road.LaneIds {
		if l := idx.lane(laneID); l.Type == mapv2.LaneType_LANE_TYPE_DRIVING {
			last = l
		}
	}
	if last == nil {
		log.Panicf("road %d has no driving lane", road.Id)
	}
	return last
}

// drivingLaneGroup 查找道路与下一道路之间的路口车道组
// 算法说明：
// 1. 用行车道的后继车道定位道路尽头的路口
// 2. 在路口车道组中按入道路与出道路匹配
func (idx *mapIndex) drivingLaneGroup(road *mapv2.Road, nextRoadID int32) (*mapv2.Junction, *mapv2.JunctionLaneGroup) {
	l := idx.rightestDrivingLane(road)
	if len(l.Successors) == 0 {
		log.Panicf("road %d has no successor junction", road.Id)
	}
	junc, ok := idx.laneParentJunction[l.Successors[0].Id]
	if !ok {
		log.Panicf("successor %d of lane %d is not in any junction", l.Successors[0].Id, l.Id)
	}
	for _, g := range junc.DrivingLaneGroups {
		if g.InRoadId == road.Id && g.OutRoadId == nextRoadID {
			return junc, g
		}
	}
	log.Panicf("road %d and %d are not connected, please patch the map first", road.Id, nextRoadID)
	return nil, nil
}

// pickGroupLane 在路口车道组内选择通行车道
// 说明：优先选择与到达车道连通的路口车道，不连通时取组内最后一条，
// 对应在道路上补一次换道
func (idx *mapIndex) pickGroupLane(group *mapv2.JunctionLaneGroup, landing *mapv2.Lane) *mapv2.Lane {
	var last *mapv2.Lane
	for _, laneID := range group.LaneIds {
		l := idx.lane(laneID)
		if l.Type != mapv2.LaneType_LANE_TYPE_DRIVING {
			continue
		}
		last = l
		if landing != nil && len(l.Predecessors) > 0 && l.Predecessors[0].Id == landing.Id {
			return l
		}
	}
	if last == nil {
		log.Panicf("lane group %d->%d has no driving lane", group.InRoadId, group.OutRoadId)
	}
	return last
}

// uniquePredecessor 路口车道唯一的前驱车道
func (idx *mapIndex) uniquePredecessor(l *mapv2.Lane) *mapv2.Lane {
	if len(l.Predecessors) != 1 {
		log.Panicf("lane %d has %d predecessors, expect exactly 1", l.Id, len(l.Predecessors))
	}
	return idx.lane(l.Predecessors[0].Id)
}

// uniqueSuccessor 路口车道唯一的后继车道
func (idx *mapIndex) uniqueSuccessor(l *mapv2.Lane) *mapv2.Lane {
	if len(l.Successors) != 1 {
		log.Panicf("lane %d has %d successors, expect exactly 1", l.Id, len(l.Successors))
	}
	return idx.lane(l.Successors[0].Id)
}

// newScenario 构建行驶场景
// 功能：规划起终点AOI之间的行车路径并沿路径预计算场景
// 参数：c-驱动配置，m-地图
func newScenario(c *config.Feeder, m *mapv2.Map) *scenario {
	r := router.New(m, nil)
	start := &geov2.Position{AoiPosition: &geov2.AoiPosition{AoiId: c.StartAoi}}
	end := &geov2.Position{AoiPosition: &geov2.AoiPosition{AoiId: c.EndAoi}}
	roadIDs, cost, err := r.SearchDriving(start, end, 0)
	if err != nil {
		log.Panicf("search driving from aoi %d to aoi %d: %v", c.StartAoi, c.EndAoi, err)
	}
	log.Infof("route from aoi %d to aoi %d: %d roads, eta %.1fs", c.StartAoi, c.EndAoi, len(roadIDs), cost)
	return buildScenario(c, m, roadIDs)
}

// buildScenario 沿道路序列构建场景
// 功能：把道路序列展开为车道折线，拼接行驶路径，采样路径点并收集停止线
// 参数：c-驱动配置，m-地图，roadIDs-道路ID序列
// 算法说明：
// 1. 车道选择：在每个路口的车道组中选择通行车道，
//    由其唯一前驱确定在道路上行驶的车道
// 2. 路径拼接：依次连接道路车道与路口车道的中心线
// 3. 停止线：配有固定信号灯程序的路口取进入路口车道的末端点，
//    并按路口车道在灯态列表中的下标创建信号灯头
// 4. 路径点：按固定间隔沿路径采样位置与朝向
func buildScenario(c *config.Feeder, m *mapv2.Map, roadIDs []int32) *scenario {
	if len(roadIDs) == 0 {
		log.Panicf("empty road sequence")
	}
	idx := newMapIndex(m)

	points := make([]geometry.Point, 0)
	appendLane := func(l *mapv2.Lane) {
		for _, node := range l.CenterLine.Nodes {
			points = append(points, geometry.NewPointFromPb(node))
		}
	}

	type stopMark struct {
		junctionID int32
		point      geometry.Point
		head       *signalHead
	}
	marks := make([]stopMark, 0)

	var landing *mapv2.Lane // 上一路口的出口车道
	for i, roadID := range roadIDs {
		road := idx.road(roadID)
		if i == len(roadIDs)-1 {
			// 终点道路
			roadLane := landing
			if roadLane == nil {
				roadLane = idx.rightestDrivingLane(road)
			}
			appendLane(roadLane)
			break
		}
		junc, group := idx.drivingLaneGroup(road, roadIDs[i+1])
		jLane := idx.pickGroupLane(group, landing)
		roadLane := idx.uniquePredecessor(jLane)
		if landing != nil && landing.Id != roadLane.Id {
			log.Debugf("lateral shift from lane %d to lane %d on road %d", landing.Id, roadLane.Id, road.Id)
		}
		appendLane(roadLane)
		if tl := junc.FixedProgram; tl != nil && len(tl.Phases) > 0 {
			laneIndex := lo.IndexOf(junc.LaneIds, jLane.Id)
			if laneIndex < 0 {
				log.Panicf("lane %d is not listed in junction %d", jLane.Id, junc.Id)
			}
			nodes := roadLane.CenterLine.Nodes
			marks = append(marks, stopMark{
				junctionID: junc.Id,
				point:      geometry.NewPointFromPb(nodes[len(nodes)-1]),
				head:       newSignalHead(junc.Id, laneIndex, tl),
			})
		}
		appendLane(jLane)
		landing = idx.uniqueSuccessor(jLane)
	}

	path := newPolyline(points)
	// 停止线位于路径上，投影即里程
	stops := lo.Map(marks, func(mk stopMark, _ int) *stopLine {
		return &stopLine{
			junctionID: mk.junctionID,
			s:          path.ProjectToS(mk.point),
			point:      mk.point,
			head:       mk.head,
		}
	})

	length := path.Length()
	waypoints := make([]entity.Waypoint, 0, int(length/c.WaypointInterval)+2)
	for s := 0.; s < length; s += c.WaypointInterval {
		waypoints = append(waypoints, waypointAt(path, s))
	}
	waypoints = append(waypoints, waypointAt(path, length))
	return &scenario{path: path, waypoints: waypoints, stops: stops}
}

func waypointAt(path *polyline, s float64) entity.Waypoint {
	return entity.Waypoint{Pose: entity.Pose{
		XYZ: path.PositionByS(s),
		Yaw: path.DirectionByS(s).Direction,
	}}
}

// UpdateHeads 推进全部信号灯头的相位
func (s *scenario) UpdateHeads(dt float64) {
	for _, st := range s.stops {
		st.head.Update(dt)
	}
}

// Observations 当前时刻的信号灯观测列表
// 说明：顺序与停止线表一致
func (s *scenario) Observations() []entity.Observation {
	return lo.Map(s.stops, func(st *stopLine, _ int) entity.Observation {
		return entity.Observation{
			ID:          st.junctionID,
			XYZ:         geometry.Point{X: st.point.X, Y: st.point.Y, Z: headHeight},
			GroundTruth: st.head.Color(),
		}
	})
}

// NextStop 当前里程之后最近的停止线，没有则返回nil
func (s *scenario) NextStop(cur float64) *stopLine {
	for _, st := range s.stops {
		if st.s > cur {
			return st
		}
	}
	return nil
}

// ExportStopLines 导出停止线表
// 功能：把沿途停止线写成估计端配置可直接引用的YAML片段
func (s *scenario) ExportStopLines(file string) error {
	t := config.TrafficLight{StopLines: lo.Map(s.stops, func(st *stopLine, _ int) []float64 {
		return []float64{st.point.X, st.point.Y}
	})}
	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o644)
}
