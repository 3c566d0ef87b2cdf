package pushups

// Variation is one entry of the read-only exercise catalog.
type Variation struct {
	Name       string `json:"name"`
	Desc       string `json:"desc"`
	Difficulty int    `json:"difficulty"` // 1..10
	Level      int    `json:"level"`      // 1..4
	Focus      string `json:"focus"`
}

var Variations = []Variation{
	// Level 1: beginner
	{
		Name:       "ウォール・プッシュアップ",
		Desc:       "壁に向かって立ち、立ったまま行う最も負荷の軽い種目。初心者の導入に最適。",
		Difficulty: 1,
		Level:      1,
		Focus:      "胸部全体（導入）",
	},
	{
		Name:       "インクライン",
		Desc:       "椅子や台に手を置いて行う。角度がつくため床よりも負荷が軽く、フォーム習得に向く。",
		Difficulty: 1,
		Level:      1,
		Focus:      "大胸筋下部",
	},
	{
		Name:       "ニーリング (膝つき)",
		Desc:       "床で膝をついて行う。通常の腕立て伏せへの第一歩として最も汎用性が高い。",
		Difficulty: 2,
		Level:      1,
		Focus:      "胸部 / 三頭筋",
	},
	{
		Name:       "ニーリング・ワイド",
		Desc:       "膝をついた状態で手幅を広げて行う。大胸筋への意識を高める練習に最適。",
		Difficulty: 2,
		Level:      1,
		Focus:      "大胸筋外側",
	},

	// Level 2: intermediate
	{
		Name:       "ノーマル",
		Desc:       "基本の腕立て伏せ。肩幅よりやや広く手をつく、全ての基準となる種目。",
		Difficulty: 3,
		Level:      2,
		Focus:      "胸部 / 三頭筋 / 肩",
	},
	{
		Name:       "ワイド",
		Desc:       "手幅を肩幅の1.5〜2倍に広げる。大胸筋（特に外側）への負荷が高い。",
		Difficulty: 4,
		Level:      2,
		Focus:      "大胸筋外側",
	},
	{
		Name:       "ナロー (クローズ)",
		Desc:       "手幅を肩幅より狭くする。上腕三頭筋（二の腕）と大胸筋内側に効く。",
		Difficulty: 4,
		Level:      2,
		Focus:      "上腕三頭筋 / 大胸筋内側",
	},
	{
		Name:       "ダイヤモンド",
		Desc:       "人差し指と親指でひし形を作って行う。三頭筋への負荷が極めて高い。",
		Difficulty: 5,
		Level:      2,
		Focus:      "上腕三頭筋",
	},
	{
		Name:       "デクライン",
		Desc:       "足を椅子や台に乗せて行う。大胸筋上部と三角筋前部に強烈に効く。",
		Difficulty: 5,
		Level:      2,
		Focus:      "大胸筋上部 / 三角筋",
	},
	{
		Name:       "リバースハンド",
		Desc:       "指先を足の方に向けて行う。上腕二頭筋や前腕への関与が増える特殊フォーム。",
		Difficulty: 6,
		Level:      2,
		Focus:      "上腕二頭筋 / 前腕",
	},
	{
		Name:       "ナックル (拳立て)",
		Desc:       "拳を握って行う。手首の保護や前腕の強化、格闘技の実践向け。",
		Difficulty: 6,
		Level:      2,
		Focus:      "前腕 / 手首 / 拳",
	},

	// Level 3: advanced
	{
		Name:       "ヒンズー",
		Desc:       "体を反らせながら円を描くように動く。柔軟性と全身の連動性を鍛える。",
		Difficulty: 7,
		Level:      3,
		Focus:      "肩 / 背中 / 全身",
	},
	{
		Name:       "ダイブボンバー",
		Desc:       "ヒンズーに似ているが、元の軌道を逆再生して戻るため、さらに負荷が高い。",
		Difficulty: 8,
		Level:      3,
		Focus:      "全身の筋持久力",
	},
	{
		Name:       "スパイダーマン",
		Desc:       "体を下ろすと同時に片膝を肘に近づける。腹斜筋も同時に鍛えられる。",
		Difficulty: 7,
		Level:      3,
		Focus:      "胸部 / 腹斜筋",
	},
	{
		Name:       "アーチャー",
		Desc:       "弓を引くように片腕を横に伸ばし、もう片方の腕に体重を乗せる。片手への布石。",
		Difficulty: 7,
		Level:      3,
		Focus:      "片腕出力 / 体幹",
	},
	{
		Name:       "タイプライター",
		Desc:       "体を沈めた状態で左右にスライド移動する。大胸筋への持続的な負荷が特徴。",
		Difficulty: 8,
		Level:      3,
		Focus:      "大胸筋（持続負荷）",
	},
	{
		Name:       "アンイーブン",
		Desc:       "片手をボールや段差に乗せて高さを変えて行う。左右非対称の刺激を与える。",
		Difficulty: 7,
		Level:      3,
		Focus:      "深層筋 / バランス",
	},
	{
		Name:       "スタッガード",
		Desc:       "片手を前、片手を後ろにずらして置く。縦方向の刺激変化を楽しむ。",
		Difficulty: 7,
		Level:      3,
		Focus:      "三頭筋 / 肩（前後差）",
	},
	{
		Name:       "クラップ",
		Desc:       "体を強く押し上げ空中で手を叩く。爆発的な瞬発力を鍛える。",
		Difficulty: 8,
		Level:      3,
		Focus:      "瞬発力 / 爆発的パワー",
	},

	// Level 4: elite
	{
		Name:       "ワンアーム (足開き)",
		Desc:       "片手で行う。足を開いてバランスを取る、片手腕立てのスタンダード。",
		Difficulty: 9,
		Level:      4,
		Focus:      "圧倒的片腕筋力",
	},
	{
		Name:       "ワンアーム (足閉じ)",
		Desc:       "足を閉じて行う。体幹の回旋を抑える強烈な体幹力とバランスが必要。",
		Difficulty: 10,
		Level:      4,
		Focus:      "体幹 / 極限のバランス",
	},
	{
		Name:       "ワンアーム・ワンレッグ",
		Desc:       "片手かつ片足で行う。支持基底面が最小になり、難易度は最大級。",
		Difficulty: 10,
		Level:      4,
		Focus:      "全身の連動 / 極点",
	},
	{
		Name:       "レバー・プッシュアップ",
		Desc:       "片腕を横に伸ばし、もう片方の腕だけで上下する。ほぼ片手腕立ての強度。",
		Difficulty: 9,
		Level:      4,
		Focus:      "大胸筋 / 体幹側部",
	},
	{
		Name:       "フィンガーチップ",
		Desc:       "指立て伏せ。指の強度と前腕の極限的な強化が必要。怪我に注意。",
		Difficulty: 9,
		Level:      4,
		Focus:      "前腕 / 指の強度",
	},
	{
		Name:       "プランシェ (疑似含む)",
		Desc:       "足を浮かせる、または重心を前に倒す。自重における最高峰の難度。",
		Difficulty: 10,
		Level:      4,
		Focus:      "肩 / 体幹 / 全身",
	},
	{
		Name:       "スーパーマン",
		Desc:       "全身を空中に飛ばし、手足を前後に伸ばす。圧倒的な爆発力と滞空能力。",
		Difficulty: 10,
		Level:      4,
		Focus:      "プライオメトリクス",
	},
	{
		Name:       "アズテック",
		Desc:       "空中で手とつま先をタッチする爆発的種目。最高クラスの瞬発力。",
		Difficulty: 10,
		Level:      4,
		Focus:      "腹筋 / 瞬発力",
	},
	{
		Name:       "ハンドスタンド (倒立)",
		Desc:       "壁倒立、または自立倒立した状態で行う。肩への最大負荷。",
		Difficulty: 10,
		Level:      4,
		Focus:      "三角筋 / 三頭筋",
	},
}
